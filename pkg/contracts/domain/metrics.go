package domain

import (
	"encoding/json"
	"math"
)

// NullableFloat is a float64 whose NaN value stands for "undefined" and is
// encoded as JSON null.
type NullableFloat float64

// Undefined returns the NaN NullableFloat.
func Undefined() NullableFloat {
	return NullableFloat(math.NaN())
}

// Valid reports whether the value is defined.
func (f NullableFloat) Valid() bool {
	return !math.IsNaN(float64(f))
}

// Float64 returns the raw value, NaN included.
func (f NullableFloat) Float64() float64 {
	return float64(f)
}

// MarshalJSON implements json.Marshaler.
func (f NullableFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid() || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *NullableFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullableFloat(v)
	return nil
}

// KPISummary holds the scalar indicators of a dataset view.
//
// CompletionRate is 0 when TotalTasks is 0, while SLACompliance and
// AvgCompletionTime are undefined (NaN) on an empty view.
type KPISummary struct {
	TotalTasks        int           `json:"total_tasks"`
	CompletedTasks    int           `json:"completed_tasks"`
	PendingTasks      int           `json:"pending_tasks"`
	CompletionRate    float64       `json:"completion_rate"`
	SLACompliance     NullableFloat `json:"sla_compliance"`
	AvgCompletionTime NullableFloat `json:"avg_completion_time"`
}

// DepartmentSummary is the per-department rollup of assigned and completed tasks.
type DepartmentSummary struct {
	Department        string  `json:"department"`
	TasksAssigned     int     `json:"tasks_assigned"`
	TasksCompleted    int     `json:"tasks_completed"`
	CompletionRatePct float64 `json:"completion_rate_pct"`
}

// DateTrendPoint is the per-date rollup feeding the trend chart.
type DateTrendPoint struct {
	Date           string `json:"date"`
	TasksAssigned  int    `json:"tasks_assigned"`
	TasksCompleted int    `json:"tasks_completed"`
}

// SLASummary is the share of rows meeting their SLA within a department.
type SLASummary struct {
	Department    string  `json:"department"`
	Rows          int     `json:"rows"`
	RowsMet       int     `json:"rows_met"`
	CompliancePct float64 `json:"compliance_pct"`
}

// DepartmentShare is the completed-task total of one department, used for
// proportion-of-whole charts.
type DepartmentShare struct {
	Department     string `json:"department"`
	TasksCompleted int    `json:"tasks_completed"`
}
