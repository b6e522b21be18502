package http

import (
	"context"
	"io"

	"opsdash/internal/services"
	"opsdash/internal/session"
)

// DashboardServiceInterface defines the dashboard operations used by the handlers
type DashboardServiceInterface interface {
	Load(ctx context.Context, sessionID, filename string, r io.Reader) (session.State, error)
	LoadSample(ctx context.Context, sessionID string, seed *uint64) (session.State, error)
	Departments(ctx context.Context, sessionID string, useSample bool) (*services.DatasetInfo, error)
	Render(ctx context.Context, sessionID string, q services.DashboardQuery) (*services.Dashboard, error)
	Export(ctx context.Context, sessionID string, format services.ExportFormat, useSample bool) (*services.ExportResult, error)
	EndSession(ctx context.Context, sessionID string) bool
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
