package dataprocessing

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "opsdash/internal/errors"
	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/domain"
)

const header = "Date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target,Completion_Time"

func newTestLoader(t *testing.T) *Loader {
	logger, _ := testutil.NewTestLogger(t)
	return NewLoader(logger)
}

func TestLoader_ParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []domain.Record
	}{
		{
			name:  "canonical two rows",
			input: testutil.TwoRowCSV,
			want:  testutil.TwoRowRecords(),
		},
		{
			name:  "header only is an empty dataset",
			input: header + "\n",
			want:  []domain.Record{},
		},
		{
			name: "columns in any order with extras ignored",
			input: testutil.CSV("Notes,Completion_Time,Department,SLA_Target,Date,Tasks_Completed,Tasks_Assigned",
				`"late, escalated",40,IT,48,2024-01-01,8,10`),
			want: testutil.TwoRowRecords()[:1],
		},
		{
			name:  "integral floats and padded cells",
			input: testutil.CSV(header, "2024-01-01, IT ,10.0,8.0,48,40"),
			want:  testutil.TwoRowRecords()[:1],
		},
		{
			name:  "byte order mark on header",
			input: "\ufeff" + testutil.TwoRowCSV,
			want:  testutil.TwoRowRecords(),
		},
		{
			name:  "non-enforced completed above assigned",
			input: testutil.CSV(header, "2024-01-01,IT,5,9,48,40"),
			want: []domain.Record{
				{Date: testutil.Day(2024, 1, 1), Department: "IT", TasksAssigned: 5, TasksCompleted: 9, SLATarget: 48, CompletionTime: 40},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := newTestLoader(t).ParseCSV(context.Background(), strings.NewReader(tt.input))

			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, ds.Records); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoader_ParseCSV_DateLayouts(t *testing.T) {
	want := testutil.Day(2024, 3, 9)
	for _, raw := range []string{
		"2024-03-09",
		"2024-03-09T17:45:00Z",
		"2024-03-09T17:45:00",
		"2024-03-09 17:45:00",
		"2024/03/09",
		"03/09/2024",
	} {
		t.Run(raw, func(t *testing.T) {
			ds, err := newTestLoader(t).ParseCSV(context.Background(),
				strings.NewReader(testutil.CSV(header, raw+",IT,1,1,24,2")))

			require.NoError(t, err)
			require.Equal(t, 1, ds.Len())
			assert.True(t, want.Equal(ds.Records[0].Date), "got %s", ds.Records[0].Date)
			assert.Equal(t, time.UTC, ds.Records[0].Date.Location())
		})
	}
}

func TestLoader_ParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantColumn string
		wantLine   int
	}{
		{
			name:       "empty input",
			input:      "",
			wantColumn: domain.ColumnDate,
		},
		{
			name:       "missing column",
			input:      "Date,Department,Tasks_Assigned,Tasks_Completed,Completion_Time\n2024-01-01,IT,1,1,2\n",
			wantColumn: domain.ColumnSLATarget,
		},
		{
			name:       "header names are case sensitive",
			input:      "date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target,Completion_Time\n",
			wantColumn: domain.ColumnDate,
		},
		{
			name:       "unparsable date",
			input:      testutil.CSV(header, "2024-01-01,IT,1,1,24,2", "someday,IT,1,1,24,2"),
			wantColumn: domain.ColumnDate,
			wantLine:   3,
		},
		{
			name:       "non numeric assigned",
			input:      testutil.CSV(header, "2024-01-01,IT,ten,1,24,2"),
			wantColumn: domain.ColumnTasksAssigned,
			wantLine:   2,
		},
		{
			name:       "fractional completed",
			input:      testutil.CSV(header, "2024-01-01,IT,10,2.5,24,2"),
			wantColumn: domain.ColumnTasksCompleted,
			wantLine:   2,
		},
		{
			name:       "empty sla",
			input:      testutil.CSV(header, "2024-01-01,IT,10,2,,2"),
			wantColumn: domain.ColumnSLATarget,
			wantLine:   2,
		},
		{
			name:       "short row",
			input:      testutil.CSV(header, "2024-01-01,IT,10,2,24"),
			wantColumn: domain.ColumnCompletionTime,
			wantLine:   2,
		},
		{
			name:       "not a finite completion time",
			input:      testutil.CSV(header, "2024-01-01,IT,10,2,24,NaN"),
			wantColumn: domain.ColumnCompletionTime,
			wantLine:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestLoader(t).ParseCSV(context.Background(), strings.NewReader(tt.input))

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrDataFormat))

			var dataErr *apperrors.DataFormatError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, tt.wantColumn, dataErr.Column)
			assert.Equal(t, tt.wantLine, dataErr.Line)
		})
	}
}

func TestLoader_ParseCSV_MalformedQuoting(t *testing.T) {
	_, err := newTestLoader(t).ParseCSV(context.Background(),
		strings.NewReader(testutil.CSV(header, `2024-01-01,"IT,10,2,24,2`)))

	var dataErr *apperrors.DataFormatError
	require.True(t, errors.As(err, &dataErr))
	assert.Contains(t, dataErr.Error(), "not valid CSV")
}

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func headerRow() []interface{} {
	row := make([]interface{}, len(domain.Columns))
	for i, c := range domain.Columns {
		row[i] = c
	}
	return row
}

func TestLoader_ParseWorkbook(t *testing.T) {
	t.Run("data sheet with text and serial dates", func(t *testing.T) {
		data := buildWorkbook(t, WorkbookDataSheet, [][]interface{}{
			headerRow(),
			{"2024-01-01", "IT", 10, 8, 48, 40},
			{testutil.Day(2024, 1, 2), "HR", 20, 17, 24, 30},
		})

		ds, err := newTestLoader(t).Parse(context.Background(), "report.XLSX", bytes.NewReader(data))

		require.NoError(t, err)
		if diff := cmp.Diff(testutil.TwoRowRecords(), ds.Records); diff != "" {
			t.Errorf("records mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("first sheet when no data sheet exists", func(t *testing.T) {
		data := buildWorkbook(t, "Export", [][]interface{}{
			{},
			headerRow(),
			{"2024-03-01", "Finance", 12, 10, 24, 20.5},
		})

		ds, err := newTestLoader(t).ParseWorkbook(context.Background(), bytes.NewReader(data))

		require.NoError(t, err)
		require.Equal(t, 1, ds.Len())
		assert.Equal(t, 20.5, ds.Records[0].CompletionTime)
	})

	t.Run("bad cell reports sheet line", func(t *testing.T) {
		data := buildWorkbook(t, WorkbookDataSheet, [][]interface{}{
			headerRow(),
			{"2024-01-01", "IT", 10, 8, 48, 40},
			{"2024-01-02", "IT", "many", 8, 48, 40},
		})

		_, err := newTestLoader(t).ParseWorkbook(context.Background(), bytes.NewReader(data))

		var dataErr *apperrors.DataFormatError
		require.True(t, errors.As(err, &dataErr))
		assert.Equal(t, domain.ColumnTasksAssigned, dataErr.Column)
		assert.Equal(t, 3, dataErr.Line)
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := newTestLoader(t).ParseWorkbook(context.Background(), strings.NewReader(testutil.TwoRowCSV))
		assert.True(t, errors.Is(err, apperrors.ErrDataFormat))
	})
}

func TestLoader_Parse_DispatchesOnExtension(t *testing.T) {
	ds, err := newTestLoader(t).Parse(context.Background(), "ops.csv", strings.NewReader(testutil.TwoRowCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	ds, err = newTestLoader(t).Parse(context.Background(), "no-extension", strings.NewReader(testutil.TwoRowCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}
