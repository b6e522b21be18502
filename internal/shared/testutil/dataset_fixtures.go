package testutil

import (
	"strings"
	"time"

	"opsdash/pkg/contracts/domain"
)

// Day returns midnight UTC for the given calendar date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TwoRowRecords is the canonical two-row dataset used across packages:
// 30 assigned, 25 completed, one of two rows within SLA, mean time 35.
func TwoRowRecords() []domain.Record {
	return []domain.Record{
		{Date: Day(2024, 1, 1), Department: "IT", TasksAssigned: 10, TasksCompleted: 8, SLATarget: 48, CompletionTime: 40},
		{Date: Day(2024, 1, 2), Department: "HR", TasksAssigned: 20, TasksCompleted: 17, SLATarget: 24, CompletionTime: 30},
	}
}

// TwoRowCSV is TwoRowRecords rendered as CSV with the canonical header
const TwoRowCSV = "Date,Department,Tasks_Assigned,Tasks_Completed,SLA_Target,Completion_Time\n" +
	"2024-01-01,IT,10,8,48,40\n" +
	"2024-01-02,HR,20,17,24,30\n"

// MixedRecords spans three departments over four days
func MixedRecords() []domain.Record {
	return []domain.Record{
		{Date: Day(2024, 3, 1), Department: "Finance", TasksAssigned: 12, TasksCompleted: 10, SLATarget: 24, CompletionTime: 20.5},
		{Date: Day(2024, 3, 1), Department: "IT", TasksAssigned: 30, TasksCompleted: 21, SLATarget: 72, CompletionTime: 80},
		{Date: Day(2024, 3, 2), Department: "Finance", TasksAssigned: 18, TasksCompleted: 18, SLATarget: 24, CompletionTime: 24},
		{Date: Day(2024, 3, 3), Department: "Logistics", TasksAssigned: 25, TasksCompleted: 15, SLATarget: 48, CompletionTime: 51.2},
		{Date: Day(2024, 3, 4), Department: "IT", TasksAssigned: 40, TasksCompleted: 36, SLATarget: 72, CompletionTime: 60.1},
	}
}

// CSV builds a CSV document from a header line and data lines
func CSV(header string, rows ...string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}
