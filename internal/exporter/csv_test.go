package exporter

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsdash/internal/dataprocessing"
	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/domain"
)

func TestWriteCSV(t *testing.T) {
	// Variables keep the sum out of constant folding.
	tenth, fifth := 0.1, 0.2

	tests := []struct {
		name    string
		records []domain.Record
		want    string
	}{
		{
			name:    "two rows",
			records: testutil.TwoRowRecords(),
			want:    testutil.TwoRowCSV,
		},
		{
			name:    "empty dataset keeps header",
			records: nil,
			want:    "Date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target,Completion_Time\n",
		},
		{
			name: "quoted department and shortest floats",
			records: []domain.Record{
				{Date: testutil.Day(2024, 2, 29), Department: "Sales, East", TasksAssigned: 3, TasksCompleted: 2, SLATarget: 24, CompletionTime: tenth + fifth},
			},
			want: "Date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target,Completion_Time\n" +
				"2024-02-29,\"Sales, East\",3,2,24,0.30000000000000004\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, domain.NewDataset(tt.records)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	ds := dataprocessing.GenerateSample(dataprocessing.DefaultSampleConfig())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ds))

	logger, _ := testutil.NewTestLogger(t)
	parsed, err := dataprocessing.NewLoader(logger).ParseCSV(context.Background(), &buf)
	require.NoError(t, err)

	if diff := cmp.Diff(ds, parsed); diff != "" {
		t.Fatalf("csv round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSV_SampleIsByteIdentical(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, WriteCSV(&first, dataprocessing.GenerateSample(dataprocessing.DefaultSampleConfig())))
	require.NoError(t, WriteCSV(&second, dataprocessing.GenerateSample(dataprocessing.DefaultSampleConfig())))

	assert.Equal(t, first.Bytes(), second.Bytes())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteCSV_WriterError(t *testing.T) {
	err := WriteCSV(failingWriter{}, domain.NewDataset(testutil.TwoRowRecords()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
