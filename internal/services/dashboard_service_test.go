package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"opsdash/internal/dataprocessing"
	apperrors "opsdash/internal/errors"
	"opsdash/internal/exporter"
	"opsdash/internal/session"
	"opsdash/internal/shared/testutil"
	api "opsdash/pkg/contracts/api/v1"
	"opsdash/pkg/contracts/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type serviceFixture struct {
	svc   *DashboardService
	store *session.MemoryStore
	logs  *testutil.BufferedSlogHandler
}

func newServiceFixture(t *testing.T, opts DashboardOptions) serviceFixture {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	store := session.NewMemoryStore(time.Hour)
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return fixedNow }
	}
	return serviceFixture{
		svc:   NewDashboardService(store, opts, logger),
		store: store,
		logs:  logs,
	}
}

func mixedCSV(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, exporter.WriteCSV(&buf, domain.NewDataset(testutil.MixedRecords())))
	return buf.String()
}

func TestDashboardService_RenderTwoRowScenario(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()

	state, err := f.svc.Load(ctx, "s1", "ops.csv", strings.NewReader(testutil.TwoRowCSV))
	require.NoError(t, err)
	assert.Equal(t, session.SourceUpload, state.Source)
	assert.Equal(t, "ops.csv", state.Filename)
	assert.Equal(t, fixedNow, state.LoadedAt)

	dash, err := f.svc.Render(ctx, "s1", DashboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, session.SourceUpload, dash.Source)
	assert.Equal(t, 2, dash.RowCount)
	assert.Equal(t, 2, dash.TotalRows)
	assert.Equal(t, 30, dash.KPIs.TotalTasks)
	assert.Equal(t, 25, dash.KPIs.CompletedTasks)
	assert.Equal(t, 5, dash.KPIs.PendingTasks)
	assert.InDelta(t, 83.33, dash.KPIs.CompletionRate, 0.01)
	assert.InDelta(t, 50.0, dash.KPIs.SLACompliance.Float64(), 1e-9)
	assert.InDelta(t, 35.0, dash.KPIs.AvgCompletionTime.Float64(), 1e-9)

	assert.Equal(t, domain.AllDepartments, dash.Filters.Department)
	assert.Equal(t, []string{"All", "HR", "IT"}, dash.Filters.DepartmentOptions)
	assert.Equal(t, "2024-01-01", dash.Filters.Start)
	assert.Equal(t, "2024-01-02", dash.Filters.End)
	require.NotNil(t, dash.Filters.Span)
	assert.Equal(t, testutil.Day(2024, 1, 1), dash.Filters.Span.Start)
	assert.Equal(t, domain.ColumnDate, dash.Filters.Sort)
	assert.Equal(t, dataprocessing.Descending, dash.Filters.Order)

	require.Len(t, dash.Table, 2)
	assert.Equal(t, "HR", dash.Table[0].Department, "newest row first by default")
	require.Len(t, dash.DateTrend, 2)
	assert.Equal(t, "2024-01-01", dash.DateTrend[0].Date)
}

func TestDashboardService_RenderFilters(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()
	_, err := f.svc.Load(ctx, "s1", "mixed.csv", strings.NewReader(mixedCSV(t)))
	require.NoError(t, err)

	tests := []struct {
		name       string
		query      DashboardQuery
		wantRows   int
		wantDept   string
		wantStart  string
		wantEnd    string
		wantKPIsOK bool
	}{
		{
			name:       "no filters",
			query:      DashboardQuery{},
			wantRows:   5,
			wantDept:   "All",
			wantStart:  "2024-03-01",
			wantEnd:    "2024-03-04",
			wantKPIsOK: true,
		},
		{
			name:       "department selector is case-insensitive",
			query:      DashboardQuery{Department: "finance"},
			wantRows:   2,
			wantDept:   "Finance",
			wantStart:  "2024-03-01",
			wantEnd:    "2024-03-04",
			wantKPIsOK: true,
		},
		{
			name:       "date range",
			query:      DashboardQuery{Start: testutil.Day(2024, 3, 2), End: testutil.Day(2024, 3, 3)},
			wantRows:   2,
			wantDept:   "All",
			wantStart:  "2024-03-02",
			wantEnd:    "2024-03-03",
			wantKPIsOK: true,
		},
		{
			name:       "range outside the span is clamped",
			query:      DashboardQuery{Start: testutil.Day(2023, 1, 1), End: testutil.Day(2025, 1, 1)},
			wantRows:   5,
			wantDept:   "All",
			wantStart:  "2024-03-01",
			wantEnd:    "2024-03-04",
			wantKPIsOK: true,
		},
		{
			name:       "unknown department yields an empty view",
			query:      DashboardQuery{Department: "Marketing"},
			wantRows:   0,
			wantDept:   "Marketing",
			wantStart:  "2024-03-01",
			wantEnd:    "2024-03-04",
			wantKPIsOK: false,
		},
		{
			name:       "range after the span selects nothing",
			query:      DashboardQuery{Start: testutil.Day(2030, 1, 1), End: testutil.Day(2030, 2, 1)},
			wantRows:   0,
			wantDept:   "All",
			wantStart:  "2030-01-01",
			wantEnd:    "2030-02-01",
			wantKPIsOK: false,
		},
		{
			name:       "inverted range selects nothing",
			query:      DashboardQuery{Start: testutil.Day(2024, 3, 4), End: testutil.Day(2024, 3, 1)},
			wantRows:   0,
			wantDept:   "All",
			wantStart:  "2024-03-04",
			wantEnd:    "2024-03-01",
			wantKPIsOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash, err := f.svc.Render(ctx, "s1", tt.query)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRows, dash.RowCount)
			assert.Len(t, dash.Table, tt.wantRows)
			assert.Equal(t, 5, dash.TotalRows)
			assert.Equal(t, tt.wantDept, dash.Filters.Department)
			assert.Equal(t, tt.wantStart, dash.Filters.Start)
			assert.Equal(t, tt.wantEnd, dash.Filters.End)
			assert.Equal(t, tt.wantKPIsOK, dash.KPIs.SLACompliance.Valid())
			assert.Equal(t, tt.wantKPIsOK, dash.KPIs.AvgCompletionTime.Valid())
			if !tt.wantKPIsOK {
				assert.Zero(t, dash.KPIs.CompletionRate)
				assert.Empty(t, dash.DepartmentSummary)
			}

			completed := 0
			for _, s := range dash.DepartmentSummary {
				completed += s.TasksCompleted
			}
			assert.Equal(t, dash.KPIs.CompletedTasks, completed)
		})
	}
}

func TestDashboardService_RenderSort(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()
	_, err := f.svc.Load(ctx, "s1", "mixed.csv", strings.NewReader(mixedCSV(t)))
	require.NoError(t, err)

	dash, err := f.svc.Render(ctx, "s1", DashboardQuery{SortColumn: domain.ColumnTasksAssigned, SortOrder: dataprocessing.Ascending})
	require.NoError(t, err)
	require.Len(t, dash.Table, 5)
	assert.Equal(t, 12, dash.Table[0].TasksAssigned)
	assert.Equal(t, 40, dash.Table[4].TasksAssigned)

	_, err = f.svc.Render(ctx, "s1", DashboardQuery{SortColumn: "Priority"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
	assert.Equal(t, "sort", appErr.Context["field"])
}

func TestDashboardService_SampleFallback(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()

	t.Run("sample mode on", func(t *testing.T) {
		dash, err := f.svc.Render(ctx, "fresh", DashboardQuery{UseSample: true})
		require.NoError(t, err)
		assert.Equal(t, session.SourceSample, dash.Source)
		assert.Equal(t, 180*6, dash.TotalRows)
		assert.Equal(t, 0, f.store.Len(), "fallback is not stored in the session")
	})

	t.Run("sample mode off", func(t *testing.T) {
		_, err := f.svc.Render(ctx, "fresh", DashboardQuery{UseSample: false})
		assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
	})

	t.Run("uploaded data wins over the sample", func(t *testing.T) {
		_, err := f.svc.Load(ctx, "s2", "ops.csv", strings.NewReader(testutil.TwoRowCSV))
		require.NoError(t, err)
		dash, err := f.svc.Render(ctx, "s2", DashboardQuery{UseSample: true})
		require.NoError(t, err)
		assert.Equal(t, session.SourceUpload, dash.Source)
		assert.Equal(t, 2, dash.TotalRows)
	})
}

func TestDashboardService_LoadRejectsMalformedUpload(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()

	_, err := f.svc.Load(ctx, "s1", "ops.csv", strings.NewReader(testutil.TwoRowCSV))
	require.NoError(t, err)

	bad := testutil.CSV("Date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target",
		"2024-01-01,IT,10,8,48")
	_, err = f.svc.Load(ctx, "s1", "bad.csv", strings.NewReader(bad))

	var formatErr *apperrors.DataFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, domain.ColumnCompletionTime, formatErr.Column)
	testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "upload rejected")

	dash, err := f.svc.Render(ctx, "s1", DashboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, "ops.csv", dash.Filename, "previous dataset survives a failed upload")
}

func TestDashboardService_LoadRequiresSession(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})

	_, err := f.svc.Load(context.Background(), "", "ops.csv", strings.NewReader(testutil.TwoRowCSV))
	assert.ErrorIs(t, err, ErrSessionRequired)

	_, err = f.svc.LoadSample(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestDashboardService_LoadSample(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()

	state, err := f.svc.LoadSample(ctx, "s1", nil)
	require.NoError(t, err)
	assert.Equal(t, session.SourceSample, state.Source)
	if diff := cmp.Diff(dataprocessing.GenerateSample(dataprocessing.DefaultSampleConfig()), state.Dataset); diff != "" {
		t.Errorf("default sample mismatch (-want +got):\n%s", diff)
	}

	seed := uint64(7)
	reseeded, err := f.svc.LoadSample(ctx, "s1", &seed)
	require.NoError(t, err)
	assert.Equal(t, state.Dataset.Len(), reseeded.Dataset.Len())
	assert.NotEqual(t, state.Dataset.Records, reseeded.Dataset.Records)

	info, err := f.svc.Departments(ctx, "s1", false)
	require.NoError(t, err)
	assert.Equal(t, session.SourceSample, info.Source)
	assert.Equal(t, 1080, info.Rows)
	assert.Equal(t, []string{"All", "Customer Service", "Finance", "HR", "IT", "Logistics", "Operations"}, info.DepartmentOptions)
	require.NotNil(t, info.Span)
	assert.Equal(t, testutil.Day(2024, 1, 1), info.Span.Start)
	assert.Equal(t, testutil.Day(2024, 6, 28), info.Span.End)
}

func TestDashboardService_DepartmentsOfEmptyUpload(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()

	_, err := f.svc.Load(ctx, "s1", "empty.csv", strings.NewReader(testutil.CSV(strings.Join(domain.Columns, ","))))
	require.NoError(t, err)

	info, err := f.svc.Departments(ctx, "s1", true)
	require.NoError(t, err)
	assert.Equal(t, 0, info.Rows)
	assert.Equal(t, []string{"All"}, info.DepartmentOptions)
	assert.Nil(t, info.Span)

	dash, err := f.svc.Render(ctx, "s1", DashboardQuery{Start: testutil.Day(2024, 1, 1)})
	require.NoError(t, err)
	assert.Zero(t, dash.RowCount)
	assert.Empty(t, dash.Filters.Start)
	assert.False(t, dash.KPIs.SLACompliance.Valid())
}

func TestDashboardService_Export(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{FilenamePrefix: "weekly"})
	ctx := context.Background()
	_, err := f.svc.Load(ctx, "s1", "mixed.csv", strings.NewReader(mixedCSV(t)))
	require.NoError(t, err)

	// a narrow render must not affect exports
	_, err = f.svc.Render(ctx, "s1", DashboardQuery{Department: "IT"})
	require.NoError(t, err)

	loader := dataprocessing.NewLoader(slog.Default())

	t.Run("csv", func(t *testing.T) {
		res, err := f.svc.Export(ctx, "s1", FormatCSV, false)
		require.NoError(t, err)
		assert.Equal(t, "weekly_2024-05-01.csv", res.Filename)
		assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

		ds, err := loader.ParseCSV(ctx, bytes.NewReader(res.Data))
		require.NoError(t, err)
		if diff := cmp.Diff(testutil.MixedRecords(), ds.Records); diff != "" {
			t.Errorf("csv round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		res, err := f.svc.Export(ctx, "s1", FormatXLSX, false)
		require.NoError(t, err)
		assert.Equal(t, "weekly_2024-05-01.xlsx", res.Filename)
		assert.Equal(t, FormatXLSX.ContentType(), res.ContentType)

		ds, err := loader.ParseWorkbook(ctx, bytes.NewReader(res.Data))
		require.NoError(t, err)
		if diff := cmp.Diff(testutil.MixedRecords(), ds.Records); diff != "" {
			t.Errorf("workbook round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nothing loaded", func(t *testing.T) {
		_, err := f.svc.Export(ctx, "other", FormatCSV, false)
		assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := f.svc.Export(ctx, "s1", ExportFormat("pdf"), false)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestDashboardService_EndSession(t *testing.T) {
	f := newServiceFixture(t, DashboardOptions{})
	ctx := context.Background()
	_, err := f.svc.Load(ctx, "s1", "ops.csv", strings.NewReader(testutil.TwoRowCSV))
	require.NoError(t, err)

	assert.True(t, f.svc.EndSession(ctx, "s1"))
	assert.False(t, f.svc.EndSession(ctx, "s1"))

	_, err = f.svc.Render(ctx, "s1", DashboardQuery{})
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
}

func TestDashboardService_SweepSessions(t *testing.T) {
	now := fixedNow
	clock := func() time.Time { return now }
	logger, _ := testutil.NewTestLogger(t)
	store := session.NewMemoryStoreWithClock(time.Minute, clock)
	svc := NewDashboardService(store, DashboardOptions{Clock: clock}, logger)
	ctx := context.Background()

	_, err := svc.LoadSample(ctx, "a", nil)
	require.NoError(t, err)
	_, err = svc.LoadSample(ctx, "b", nil)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, svc.SweepSessions(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{"CSV", FormatCSV, false},
		{" csv ", FormatCSV, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExportFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFormat))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDashboardQuery(t *testing.T) {
	tests := []struct {
		name      string
		in        api.DashboardQuery
		want      DashboardQuery
		wantField string
	}{
		{
			name: "defaults",
			in:   api.DashboardQuery{},
			want: DashboardQuery{SortOrder: dataprocessing.Descending, UseSample: true},
		},
		{
			name: "all fields",
			in: api.DashboardQuery{
				Department: "IT",
				Start:      "2024-01-05",
				End:        "2024-02-01",
				Sort:       "Department",
				Order:      "asc",
				Sample:     "false",
			},
			want: DashboardQuery{
				Department: "IT",
				Start:      testutil.Day(2024, 1, 5),
				End:        testutil.Day(2024, 2, 1),
				SortColumn: "Department",
				SortOrder:  dataprocessing.Ascending,
				UseSample:  false,
			},
		},
		{name: "bad start", in: api.DashboardQuery{Start: "05/01/2024"}, wantField: "start"},
		{name: "bad end", in: api.DashboardQuery{End: "2024-13-01"}, wantField: "end"},
		{name: "bad order", in: api.DashboardQuery{Order: "sideways"}, wantField: "order"},
		{name: "bad sample", in: api.DashboardQuery{Sample: "maybe"}, wantField: "sample"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDashboardQuery(tt.in)
			if tt.wantField != "" {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.wantField, appErr.Context["field"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
