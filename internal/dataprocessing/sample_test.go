package dataprocessing

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/shared/testutil"
)

func TestGenerateSample_Shape(t *testing.T) {
	cfg := DefaultSampleConfig()
	ds := GenerateSample(cfg)

	require.Equal(t, 180*6, ds.Len())

	for i, r := range ds.Records {
		day, dept := i/len(cfg.Departments), i%len(cfg.Departments)
		assert.True(t, cfg.Epoch.AddDate(0, 0, day).Equal(r.Date), "row %d date", i)
		assert.Equal(t, cfg.Departments[dept], r.Department, "row %d department", i)

		assert.GreaterOrEqual(t, r.TasksAssigned, 10)
		assert.Less(t, r.TasksAssigned, 50)

		low := int(math.RoundToEven(0.6 * float64(r.TasksAssigned)))
		assert.GreaterOrEqual(t, r.TasksCompleted, low)
		assert.LessOrEqual(t, r.TasksCompleted, r.TasksAssigned)

		assert.Contains(t, SLATargets, r.SLATarget)

		assert.GreaterOrEqual(t, r.CompletionTime, 1.0)
		assert.InDelta(t, r.CompletionTime, math.Round(r.CompletionTime*10)/10, 1e-9)
	}

	span, ok := ds.Span()
	require.True(t, ok)
	assert.True(t, testutil.Day(2024, 1, 1).Equal(span.Start))
	assert.True(t, testutil.Day(2024, 6, 28).Equal(span.End))
}

func TestGenerateSample_Deterministic(t *testing.T) {
	first := GenerateSample(DefaultSampleConfig())
	second := GenerateSample(DefaultSampleConfig())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("same seed produced different datasets (-first +second):\n%s", diff)
	}

	other := DefaultSampleConfig()
	other.Seed = 7
	assert.NotEqual(t, first.Records, GenerateSample(other).Records)
}

func TestGenerateSample_CompletionTimeCentersNearNinetyPercent(t *testing.T) {
	ds := GenerateSample(DefaultSampleConfig())

	var ratio float64
	for _, r := range ds.Records {
		ratio += r.CompletionTime / r.SLATarget
	}
	assert.InDelta(t, 0.9, ratio/float64(ds.Len()), 0.05)
}

func TestGenerateSample_Degenerate(t *testing.T) {
	cfg := DefaultSampleConfig()
	cfg.Days = 0
	assert.True(t, GenerateSample(cfg).IsEmpty())

	cfg.Days = -3
	assert.True(t, GenerateSample(cfg).IsEmpty())

	cfg.Days = 2
	cfg.Departments = []string{"Solo"}
	assert.Equal(t, 2, GenerateSample(cfg).Len())
}
