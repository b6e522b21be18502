package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"opsdash/internal/dataprocessing"
	apperrors "opsdash/internal/errors"
	"opsdash/internal/exporter"
	"opsdash/internal/infrastructure"
	"opsdash/internal/session"
	api "opsdash/pkg/contracts/api/v1"
	"opsdash/pkg/contracts/domain"
)

// ExportFormat names a downloadable export.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ParseExportFormat accepts "xlsx" and "csv" in any case.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatCSV:
		return f, nil
	}
	return "", apperrors.NewAppError(apperrors.ErrTypeValidation,
		fmt.Sprintf("unsupported export format %q", s), ErrUnsupportedFormat).
		WithContext("field", "format")
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// DashboardQuery selects the view computed by Render.
type DashboardQuery struct {
	Department string
	Start      time.Time // zero means the dataset's first date
	End        time.Time // zero means the dataset's last date
	SortColumn string
	SortOrder  dataprocessing.SortOrder
	// UseSample falls back to the generated sample when the session holds
	// no dataset.
	UseSample bool
}

// ParseDashboardQuery converts validated query parameters. Sample mode is on
// unless explicitly disabled.
func ParseDashboardQuery(q api.DashboardQuery) (DashboardQuery, error) {
	out := DashboardQuery{
		Department: q.Department,
		SortColumn: q.Sort,
		UseSample:  true,
	}

	var err error
	if out.Start, err = parseQueryDate("start", q.Start); err != nil {
		return DashboardQuery{}, err
	}
	if out.End, err = parseQueryDate("end", q.End); err != nil {
		return DashboardQuery{}, err
	}
	if out.SortOrder, err = dataprocessing.ParseSortOrder(q.Order); err != nil {
		return DashboardQuery{}, apperrors.NewAppValidationError(err.Error()).WithContext("field", "order")
	}
	if q.Sample != "" {
		use, err := strconv.ParseBool(q.Sample)
		if err != nil {
			return DashboardQuery{}, apperrors.NewAppValidationError(fmt.Sprintf("invalid sample flag %q", q.Sample)).
				WithContext("field", "sample")
		}
		out.UseSample = use
	}
	return out, nil
}

func parseQueryDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, apperrors.NewAppValidationError(fmt.Sprintf("%s must be a YYYY-MM-DD date", field)).
			WithContext("field", field)
	}
	return t, nil
}

// FilterState echoes the effective filters back to the client together with
// the choices it can offer.
type FilterState struct {
	Department        string                   `json:"department"`
	Start             string                   `json:"start,omitempty"`
	End               string                   `json:"end,omitempty"`
	DepartmentOptions []string                 `json:"department_options"`
	Span              *domain.DateRange        `json:"span"`
	Sort              string                   `json:"sort"`
	Order             dataprocessing.SortOrder `json:"order"`
}

// Dashboard is one computed view of a session's dataset.
type Dashboard struct {
	Source            session.Source             `json:"source"`
	Filename          string                     `json:"filename,omitempty"`
	RowCount          int                        `json:"row_count"`
	TotalRows         int                        `json:"total_rows"`
	KPIs              domain.KPISummary          `json:"kpis"`
	DepartmentSummary []domain.DepartmentSummary `json:"department_summary"`
	DateTrend         []domain.DateTrendPoint    `json:"date_trend"`
	SLASummary        []domain.SLASummary        `json:"sla_summary"`
	DepartmentShare   []domain.DepartmentShare   `json:"department_share"`
	Table             []domain.Record            `json:"table"`
	Filters           FilterState                `json:"filters"`
}

// DatasetInfo describes the dataset a session would render.
type DatasetInfo struct {
	Source            session.Source    `json:"source"`
	Filename          string            `json:"filename,omitempty"`
	Rows              int               `json:"rows"`
	DepartmentOptions []string          `json:"department_options"`
	Span              *domain.DateRange `json:"span"`
	LoadedAt          time.Time         `json:"loaded_at"`
}

// ExportResult is a fully rendered export file.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DashboardOptions configures a DashboardService. Zero values select the
// defaults: the standard sample, "operations_report" filenames, no-op
// telemetry and the wall clock.
type DashboardOptions struct {
	Sample         dataprocessing.SampleConfig
	FilenamePrefix string
	Tracer         trace.Tracer
	Metrics        *infrastructure.BusinessMetrics
	Clock          func() time.Time
}

// DashboardService runs the load -> filter -> aggregate pipeline for each
// session.
type DashboardService struct {
	loader  *dataprocessing.Loader
	store   session.Store
	sample  dataprocessing.SampleConfig
	prefix  string
	tracer  trace.Tracer
	metrics *infrastructure.BusinessMetrics
	now     func() time.Time
	logger  *slog.Logger

	sampleOnce sync.Once
	sampleData domain.Dataset

	// sessions is the value last reported to the sessions_active gauge.
	sessions atomic.Int64
}

// NewDashboardService creates the dashboard service on top of store.
func NewDashboardService(store session.Store, opts DashboardOptions, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Sample.Departments) == 0 {
		opts.Sample = dataprocessing.DefaultSampleConfig()
	}
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = "operations_report"
	}
	if opts.Tracer == nil {
		opts.Tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	loader := dataprocessing.NewLoader(logger)
	logger = infrastructure.WithComponent(logger, "dashboard_service")
	logger.Info("DashboardService initialized",
		slog.Int("sample_days", opts.Sample.Days),
		slog.Int("sample_departments", len(opts.Sample.Departments)),
		slog.String("filename_prefix", opts.FilenamePrefix))

	return &DashboardService{
		loader:  loader,
		store:   store,
		sample:  opts.Sample,
		prefix:  opts.FilenamePrefix,
		tracer:  opts.Tracer,
		metrics: opts.Metrics,
		now:     opts.Clock,
		logger:  logger,
	}
}

// Load parses an uploaded file and makes it the session's dataset. A file
// that cannot be parsed leaves the session untouched.
func (s *DashboardService) Load(ctx context.Context, sessionID, filename string, r io.Reader) (session.State, error) {
	if sessionID == "" {
		return session.State{}, ErrSessionRequired
	}
	ctx, span := s.tracer.Start(ctx, "dashboard.load",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dataset.source", string(session.SourceUpload)),
			attribute.String("dataset.filename", filename),
		),
	)
	defer span.End()

	ds, err := s.loader.Parse(ctx, filename, r)
	s.metrics.RecordDatasetLoad(ctx, string(session.SourceUpload), ds.Len(), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return session.State{}, fmt.Errorf("load %q: %w", filename, err)
	}

	span.SetAttributes(attribute.Int("dataset.rows", ds.Len()))
	state := s.put(ctx, sessionID, ds, session.SourceUpload, filename)
	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("filename", filename),
		slog.Int("rows", ds.Len()))
	return state, nil
}

// LoadSample stores a generated sample as the session's dataset. A nil seed
// uses the configured one.
func (s *DashboardService) LoadSample(ctx context.Context, sessionID string, seed *uint64) (session.State, error) {
	if sessionID == "" {
		return session.State{}, ErrSessionRequired
	}
	ctx, span := s.tracer.Start(ctx, "dashboard.load",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("dataset.source", string(session.SourceSample))),
	)
	defer span.End()

	ds := s.sampleDataset()
	if seed != nil && *seed != s.sample.Seed {
		cfg := s.sample
		cfg.Seed = *seed
		ds = dataprocessing.GenerateSample(cfg)
	}
	s.metrics.RecordDatasetLoad(ctx, string(session.SourceSample), ds.Len(), nil)

	state := s.put(ctx, sessionID, ds, session.SourceSample, "")
	s.logger.InfoContext(ctx, "sample dataset loaded", slog.Int("rows", ds.Len()))
	return state, nil
}

// Departments reports the dataset a session would render without
// computing a view.
func (s *DashboardService) Departments(ctx context.Context, sessionID string, useSample bool) (*DatasetInfo, error) {
	state, err := s.resolve(sessionID, useSample)
	if err != nil {
		return nil, err
	}
	info := &DatasetInfo{
		Source:            state.Source,
		Filename:          state.Filename,
		Rows:              state.Dataset.Len(),
		DepartmentOptions: dataprocessing.DepartmentOptions(state.Dataset),
		LoadedAt:          state.LoadedAt,
	}
	if span, ok := state.Dataset.Span(); ok {
		info.Span = &span
	}
	return info, nil
}

// Render filters the session's dataset and computes every aggregate of the
// dashboard. It returns errors.ErrEmptyInput when there is nothing to show.
func (s *DashboardService) Render(ctx context.Context, sessionID string, q DashboardQuery) (*Dashboard, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "dashboard.render",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dashboard.department", q.Department),
			attribute.Bool("dashboard.sample", q.UseSample),
		),
	)
	defer span.End()

	state, err := s.resolve(sessionID, q.UseSample)
	if err != nil {
		return nil, err
	}

	order := q.SortOrder
	if order == "" {
		order = dataprocessing.DefaultSortOrder
	}
	column := q.SortColumn
	if column == "" {
		column = dataprocessing.DefaultSortColumn
	}

	ds := state.Dataset
	options := dataprocessing.DepartmentOptions(ds)
	filter := domain.Filter{Department: dataprocessing.ResolveDepartment(options, q.Department)}
	filters := FilterState{
		Department:        filter.Department,
		DepartmentOptions: options,
		Sort:              column,
		Order:             order,
	}
	if dsSpan, ok := ds.Span(); ok {
		filter.Range = dataprocessing.ClampRange(domain.DateRange{Start: q.Start, End: q.End}, dsSpan)
		filters.Span = &dsSpan
		filters.Start = filter.Range.Start.Format(domain.DateLayout)
		filters.End = filter.Range.End.Format(domain.DateLayout)
	}

	view := dataprocessing.Filter(ds, filter)
	table, err := dataprocessing.SortTable(view, column, order)
	if err != nil {
		return nil, apperrors.NewAppValidationError(err.Error()).WithContext("field", "sort")
	}

	dash := &Dashboard{
		Source:            state.Source,
		Filename:          state.Filename,
		RowCount:          view.Len(),
		TotalRows:         ds.Len(),
		KPIs:              dataprocessing.ComputeKPIs(view),
		DepartmentSummary: dataprocessing.DepartmentSummaries(view),
		DateTrend:         dataprocessing.DateTrend(view),
		SLASummary:        dataprocessing.SLASummaries(view),
		DepartmentShare:   dataprocessing.DepartmentShares(view),
		Table:             table,
		Filters:           filters,
	}

	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("dashboard.rows", dash.RowCount))
	s.metrics.RecordRender(ctx, string(state.Source), elapsed)
	s.logger.DebugContext(ctx, "dashboard rendered",
		slog.String("source", string(state.Source)),
		slog.String("department", filter.Department),
		slog.Int("rows", dash.RowCount),
		slog.Duration("duration", elapsed))
	return dash, nil
}

// Export renders the session's whole dataset in the given format. Filters
// never apply to exports.
func (s *DashboardService) Export(ctx context.Context, sessionID string, format ExportFormat, useSample bool) (*ExportResult, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.export",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("export.format", string(format))),
	)
	defer span.End()

	state, err := s.resolve(sessionID, useSample)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case FormatXLSX:
		err = exporter.WriteWorkbook(&buf, state.Dataset)
	case FormatCSV:
		err = exporter.WriteCSV(&buf, state.Dataset)
	default:
		return nil, fmt.Errorf("export %q: %w", format, ErrUnsupportedFormat)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "export failed",
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return nil, apperrors.NewExportError(fmt.Sprintf("failed to build %s export", format), err)
	}

	result := &ExportResult{
		Filename:    exporter.Filename(s.prefix, string(format), s.now()),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}
	span.SetAttributes(attribute.Int("export.bytes", len(result.Data)))
	s.metrics.RecordExport(ctx, string(format), len(result.Data))
	s.logger.InfoContext(ctx, "export generated",
		slog.String("format", string(format)),
		slog.String("filename", result.Filename),
		slog.Int("rows", state.Dataset.Len()),
		slog.Int("bytes", len(result.Data)))
	return result, nil
}

// EndSession drops a session and reports whether it existed.
func (s *DashboardService) EndSession(ctx context.Context, sessionID string) bool {
	removed := s.store.Delete(sessionID)
	if removed {
		s.syncSessionGauge(ctx)
		s.logger.InfoContext(ctx, "session ended", slog.String("session_id", sessionID))
	}
	return removed
}

// SweepSessions removes expired sessions.
func (s *DashboardService) SweepSessions(ctx context.Context) int {
	removed := s.store.Sweep()
	s.syncSessionGauge(ctx)
	if removed > 0 {
		s.logger.DebugContext(ctx, "expired sessions removed", slog.Int("count", removed))
	}
	return removed
}

// resolve returns the state to render: the session's own dataset, else the
// sample when allowed.
func (s *DashboardService) resolve(sessionID string, useSample bool) (session.State, error) {
	if sessionID != "" {
		if state, ok := s.store.Get(sessionID); ok {
			return state, nil
		}
	}
	if !useSample {
		return session.State{}, apperrors.ErrEmptyInput
	}
	return session.State{ID: sessionID}.WithDataset(s.sampleDataset(), session.SourceSample, "", s.now()), nil
}

func (s *DashboardService) put(ctx context.Context, sessionID string, ds domain.Dataset, source session.Source, filename string) session.State {
	state := session.State{ID: sessionID}.WithDataset(ds, source, filename, s.now())
	s.store.Put(state)
	s.syncSessionGauge(ctx)
	return state
}

func (s *DashboardService) syncSessionGauge(ctx context.Context) {
	n := int64(s.store.Len())
	if prev := s.sessions.Swap(n); prev != n {
		s.metrics.RecordSessionChange(ctx, n-prev)
	}
}

// sampleDataset generates the configured sample once; datasets are never
// modified, so every session can share it.
func (s *DashboardService) sampleDataset() domain.Dataset {
	s.sampleOnce.Do(func() {
		s.sampleData = dataprocessing.GenerateSample(s.sample)
	})
	return s.sampleData
}
