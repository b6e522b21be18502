package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// AllDepartments is the department selector that matches every row.
const AllDepartments = "All"

// DateRange is a closed date interval [Start, End].
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// MarshalJSON renders both bounds as calendar dates.
func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"start": r.Start.Format(DateLayout),
		"end":   r.End.Format(DateLayout),
	})
}

// Filter selects the rows of a Dataset by department and date range.
type Filter struct {
	Department string    `json:"department"`
	Range      DateRange `json:"range"`
}

// MatchesAll reports whether the department selector is the "All" sentinel.
// An empty selector is treated the same way.
func (f Filter) MatchesAll() bool {
	return f.Department == "" || strings.EqualFold(f.Department, AllDepartments)
}
