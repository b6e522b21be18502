package dataprocessing

import (
	"fmt"
	"slices"
	"strings"

	"opsdash/pkg/contracts/domain"
)

// SortOrder is the direction of the raw table sort.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// DefaultSortColumn and DefaultSortOrder give the raw table's initial view,
// newest rows first.
const (
	DefaultSortColumn = domain.ColumnDate
	DefaultSortOrder  = Descending
)

// ParseSortOrder accepts "asc" and "desc" in any case; empty means the default.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultSortOrder, nil
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

var comparators = map[string]func(a, b domain.Record) int{
	domain.ColumnDate:           func(a, b domain.Record) int { return a.Date.Compare(b.Date) },
	domain.ColumnDepartment:     func(a, b domain.Record) int { return strings.Compare(a.Department, b.Department) },
	domain.ColumnTasksAssigned:  func(a, b domain.Record) int { return compareNum(a.TasksAssigned, b.TasksAssigned) },
	domain.ColumnTasksCompleted: func(a, b domain.Record) int { return compareNum(a.TasksCompleted, b.TasksCompleted) },
	domain.ColumnSLATarget:      func(a, b domain.Record) int { return compareNum(a.SLATarget, b.SLATarget) },
	domain.ColumnCompletionTime: func(a, b domain.Record) int { return compareNum(a.CompletionTime, b.CompletionTime) },
}

func compareNum[T int | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortTable returns the view's rows ordered by column. The sort is stable in
// both directions, so rows with equal keys keep their input order.
// An empty column means DefaultSortColumn and an empty order DefaultSortOrder.
func SortTable(ds domain.Dataset, column string, order SortOrder) ([]domain.Record, error) {
	if column == "" {
		column = DefaultSortColumn
	}
	if order == "" {
		order = DefaultSortOrder
	}
	cmp, ok := comparators[column]
	if !ok {
		return nil, fmt.Errorf("unknown sort column %q", column)
	}

	rows := slices.Clone(ds.Records)
	if rows == nil {
		rows = []domain.Record{}
	}
	if order == Descending {
		slices.SortStableFunc(rows, func(a, b domain.Record) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(rows, cmp)
	}
	return rows, nil
}
