package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/session"
	"opsdash/internal/shared/testutil"
)

func TestHealthService_Checks(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	store := session.NewMemoryStore(time.Hour)
	store.Put(session.State{ID: "a"})
	hs := NewHealthServiceWithBuildInfo("1.2.3", "2024-05-01T00:00:00Z", "abc123", store, logger)
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)

	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)
	sessions, ok := ready.Services["sessions"].(ServiceHealth)
	require.True(t, ok)
	assert.Equal(t, "1 active sessions", sessions.Message)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "abc123", version["build_id"])
	assert.Equal(t, "2024-05-01T00:00:00Z", version["build_time"])
	assert.Equal(t, "v1", version["api_version"])
	assert.Equal(t, "v1", version["data_format"])
}

func TestHealthService_NotReadyWithoutStore(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("dev", nil, logger)

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", ready.Status)

	_, hasBuild := hs.Version()["build_id"]
	assert.False(t, hasBuild)
}
