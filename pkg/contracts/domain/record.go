package domain

import (
	"encoding/json"
	"time"
)

// Column names of the task-tracking dataset, in canonical order.
const (
	ColumnDate           = "Date"
	ColumnDepartment     = "Department"
	ColumnTasksAssigned  = "Tasks_Assigned"
	ColumnTasksCompleted = "Tasks_Completed"
	ColumnSLATarget      = "SLA_Target"
	ColumnCompletionTime = "Completion_Time"
)

// Columns lists the dataset columns in the order they are read and written.
var Columns = []string{
	ColumnDate,
	ColumnDepartment,
	ColumnTasksAssigned,
	ColumnTasksCompleted,
	ColumnSLATarget,
	ColumnCompletionTime,
}

// DateLayout is the calendar date format used for every exported date.
const DateLayout = "2006-01-02"

// Record is one row of the operations dataset.
// TasksCompleted <= TasksAssigned is assumed by the reports but never enforced.
type Record struct {
	Date           time.Time `json:"date" csv:"Date"`
	Department     string    `json:"department" csv:"Department"`
	TasksAssigned  int       `json:"tasks_assigned" csv:"Tasks_Assigned"`
	TasksCompleted int       `json:"tasks_completed" csv:"Tasks_Completed"`
	SLATarget      float64   `json:"sla_target" csv:"SLA_Target"`
	CompletionTime float64   `json:"completion_time" csv:"Completion_Time"`
}

// MetSLA reports whether the record finished within its SLA target.
func (r Record) MetSLA() bool {
	return r.CompletionTime <= r.SLATarget
}

// MarshalJSON renders the date as a calendar date instead of a timestamp.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{
		alias: alias(r),
		Date:  r.Date.Format(DateLayout),
	})
}

// Dataset is an ordered sequence of records. Rows are identified only by position
// and a Dataset is never modified after it has been built.
type Dataset struct {
	Records []Record `json:"records"`
}

// NewDataset wraps records in a Dataset. The slice is owned by the Dataset afterwards.
func NewDataset(records []Record) Dataset {
	if records == nil {
		records = []Record{}
	}
	return Dataset{Records: records}
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Records)
}

// IsEmpty reports whether the dataset has no rows.
func (d Dataset) IsEmpty() bool {
	return len(d.Records) == 0
}

// Span returns the closed date range covering every row. ok is false for an empty dataset.
func (d Dataset) Span() (span DateRange, ok bool) {
	if len(d.Records) == 0 {
		return DateRange{}, false
	}
	span = DateRange{Start: d.Records[0].Date, End: d.Records[0].Date}
	for _, r := range d.Records[1:] {
		if r.Date.Before(span.Start) {
			span.Start = r.Date
		}
		if r.Date.After(span.End) {
			span.End = r.Date
		}
	}
	return span, true
}

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
