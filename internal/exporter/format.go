package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"opsdash/pkg/contracts/domain"
)

// NotAvailable is written in place of an undefined metric.
const NotAvailable = "N/A"

// formatFloat uses the shortest representation that parses back to f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatPercent renders a percentage with two decimals, e.g. "87.50%".
func formatPercent(v domain.NullableFloat) string {
	if !v.Valid() {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", v.Float64())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Filename builds "<prefix>_<YYYY-MM-DD>.<ext>" for the given day.
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format(domain.DateLayout), ext)
}
