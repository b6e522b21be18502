package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"opsdash/internal/shared/testutil"
	"opsdash/pkg/contracts/domain"
)

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   domain.NullableFloat
		want string
	}{
		{87.5, "87.50%"},
		{100.0 * 25 / 30, "83.33%"},
		{0, "0.00%"},
		{domain.Undefined(), NotAvailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatPercent(tt.in))
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "48", formatFloat(48))
	assert.Equal(t, "20.5", formatFloat(20.5))
	assert.Equal(t, "-1.25", formatFloat(-1.25))
}

func TestFilename(t *testing.T) {
	day := testutil.Day(2024, 7, 4)

	assert.Equal(t, "operations_report_2024-07-04.xlsx", Filename("operations_report", "xlsx", day))
	assert.Equal(t, "weekly_2024-07-04.csv", Filename("weekly", "csv", day))
}
