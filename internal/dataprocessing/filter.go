package dataprocessing

import (
	"sort"
	"strings"
	"time"

	"opsdash/pkg/contracts/domain"
)

// Filter returns the rows matching the department selector whose date lies
// inside the range, inclusive. A zero range bound is unbounded on that side.
// The result never shares its backing array with ds.
func Filter(ds domain.Dataset, f domain.Filter) domain.Dataset {
	out := make([]domain.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if !f.MatchesAll() && r.Department != f.Department {
			continue
		}
		if !f.Range.Start.IsZero() && r.Date.Before(f.Range.Start) {
			continue
		}
		if !f.Range.End.IsZero() && r.Date.After(f.Range.End) {
			continue
		}
		out = append(out, r)
	}
	return domain.NewDataset(out)
}

// DepartmentOptions lists the selector values: "All" followed by the
// distinct departments in ascending order.
func DepartmentOptions(ds domain.Dataset) []string {
	seen := make(map[string]struct{})
	depts := make([]string, 0, 8)
	for _, r := range ds.Records {
		if _, ok := seen[r.Department]; ok {
			continue
		}
		seen[r.Department] = struct{}{}
		depts = append(depts, r.Department)
	}
	sort.Strings(depts)
	return append([]string{domain.AllDepartments}, depts...)
}

// ResolveDepartment maps a user supplied selector onto a known option.
// Matching is case-insensitive; unknown departments are returned unchanged
// and simply match nothing.
func ResolveDepartment(options []string, requested string) string {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return domain.AllDepartments
	}
	for _, opt := range options {
		if strings.EqualFold(opt, requested) {
			return opt
		}
	}
	return requested
}

// ClampRange fits a requested range into span. Missing bounds default to the
// span's. A range that ends before it starts, or one that does not overlap the
// span at all, is returned as is and selects no rows.
func ClampRange(requested, span domain.DateRange) domain.DateRange {
	if !requested.Start.IsZero() && domain.NormalizeDate(requested.Start).After(span.End) ||
		!requested.End.IsZero() && domain.NormalizeDate(requested.End).Before(span.Start) {
		return domain.DateRange{
			Start: domain.NormalizeDate(orDefault(requested.Start, span.Start)),
			End:   domain.NormalizeDate(orDefault(requested.End, span.End)),
		}
	}
	out := domain.DateRange{
		Start: clampDate(requested.Start, span.Start, span),
		End:   clampDate(requested.End, span.End, span),
	}
	return out
}

func orDefault(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

func clampDate(t, fallback time.Time, span domain.DateRange) time.Time {
	if t.IsZero() {
		return fallback
	}
	t = domain.NormalizeDate(t)
	switch {
	case t.Before(span.Start):
		return span.Start
	case t.After(span.End):
		return span.End
	}
	return t
}
