package dataprocessing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/domain"
)

func TestDepartmentSummaries(t *testing.T) {
	got := DepartmentSummaries(domain.NewDataset(testutil.MixedRecords()))

	want := []domain.DepartmentSummary{
		{Department: "Finance", TasksAssigned: 30, TasksCompleted: 28, CompletionRatePct: 93.3},
		{Department: "IT", TasksAssigned: 70, TasksCompleted: 57, CompletionRatePct: 81.4},
		{Department: "Logistics", TasksAssigned: 25, TasksCompleted: 15, CompletionRatePct: 60},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestDepartmentSummaries_ZeroAssignedGroup(t *testing.T) {
	got := DepartmentSummaries(domain.NewDataset([]domain.Record{
		{Date: testutil.Day(2024, 1, 1), Department: "HR"},
	}))

	require.Len(t, got, 1)
	assert.Zero(t, got[0].CompletionRatePct)
}

func TestDepartmentSummaries_CompletedSumMatchesKPI(t *testing.T) {
	ds := GenerateSample(DefaultSampleConfig())
	for _, dept := range DepartmentOptions(ds) {
		view := Filter(ds, domain.Filter{Department: dept})

		var sum int
		for _, s := range DepartmentSummaries(view) {
			sum += s.TasksCompleted
		}
		assert.Equal(t, ComputeKPIs(view).CompletedTasks, sum, dept)
	}
}

func TestRollups_RoundHalfToEven(t *testing.T) {
	// 49/400 is exactly 12.25 and 1/16 exactly 6.25.
	records := []domain.Record{
		{Date: testutil.Day(2024, 1, 1), Department: "HR", TasksAssigned: 400, TasksCompleted: 49, SLATarget: 24, CompletionTime: 12},
	}
	for i := 1; i < 16; i++ {
		records = append(records, domain.Record{Date: testutil.Day(2024, 1, 1+i), Department: "HR", SLATarget: 24, CompletionTime: 30})
	}
	ds := domain.NewDataset(records)

	summaries := DepartmentSummaries(ds)
	require.Len(t, summaries, 1)
	assert.Equal(t, 12.2, summaries[0].CompletionRatePct)

	sla := SLASummaries(ds)
	require.Len(t, sla, 1)
	assert.Equal(t, 1, sla[0].RowsMet)
	assert.Equal(t, 6.2, sla[0].CompliancePct)
}

func TestRound1(t *testing.T) {
	tests := map[float64]float64{
		12.25:  12.2,
		6.25:   6.2,
		0.75:   0.8,
		83.333: 83.3,
		-2.25:  -2.2,
	}
	for in, want := range tests {
		assert.Equal(t, want, round1(in), "round1(%v)", in)
	}
}

func TestDateTrend(t *testing.T) {
	records := testutil.MixedRecords()
	// Reverse so ordering has to come from the grouping.
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	got := DateTrend(domain.NewDataset(records))

	want := []domain.DateTrendPoint{
		{Date: "2024-03-01", TasksAssigned: 42, TasksCompleted: 31},
		{Date: "2024-03-02", TasksAssigned: 18, TasksCompleted: 18},
		{Date: "2024-03-03", TasksAssigned: 25, TasksCompleted: 15},
		{Date: "2024-03-04", TasksAssigned: 40, TasksCompleted: 36},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trend mismatch (-want +got):\n%s", diff)
	}
}

func TestSLASummaries(t *testing.T) {
	got := SLASummaries(domain.NewDataset(testutil.MixedRecords()))

	want := []domain.SLASummary{
		{Department: "Finance", Rows: 2, RowsMet: 2, CompliancePct: 100},
		{Department: "IT", Rows: 2, RowsMet: 1, CompliancePct: 50},
		{Department: "Logistics", Rows: 1, RowsMet: 0, CompliancePct: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sla mismatch (-want +got):\n%s", diff)
	}
}

func TestDepartmentShares(t *testing.T) {
	got := DepartmentShares(domain.NewDataset(testutil.MixedRecords()))

	assert.Equal(t, []domain.DepartmentShare{
		{Department: "Finance", TasksCompleted: 28},
		{Department: "IT", TasksCompleted: 57},
		{Department: "Logistics", TasksCompleted: 15},
	}, got)
}
