package dataprocessing

import (
	"sort"
	"time"

	"opsdash/pkg/contracts/domain"
)

type deptTotals struct {
	assigned, completed int
	rows, met           int
}

// groupByDepartment sums per department and returns the names sorted.
func groupByDepartment(ds domain.Dataset) (map[string]*deptTotals, []string) {
	groups := make(map[string]*deptTotals)
	names := make([]string, 0, 8)
	for _, r := range ds.Records {
		g, ok := groups[r.Department]
		if !ok {
			g = &deptTotals{}
			groups[r.Department] = g
			names = append(names, r.Department)
		}
		g.assigned += r.TasksAssigned
		g.completed += r.TasksCompleted
		g.rows++
		if r.MetSLA() {
			g.met++
		}
	}
	sort.Strings(names)
	return groups, names
}

// DepartmentSummaries groups the view by department, ordered by name.
// Only departments present in the view appear.
func DepartmentSummaries(ds domain.Dataset) []domain.DepartmentSummary {
	groups, names := groupByDepartment(ds)
	out := make([]domain.DepartmentSummary, 0, len(names))
	for _, name := range names {
		g := groups[name]
		s := domain.DepartmentSummary{
			Department:     name,
			TasksAssigned:  g.assigned,
			TasksCompleted: g.completed,
		}
		if g.assigned > 0 {
			s.CompletionRatePct = round1(100 * float64(g.completed) / float64(g.assigned))
		}
		out = append(out, s)
	}
	return out
}

// SLASummaries reports per department the share of rows within SLA.
func SLASummaries(ds domain.Dataset) []domain.SLASummary {
	groups, names := groupByDepartment(ds)
	out := make([]domain.SLASummary, 0, len(names))
	for _, name := range names {
		g := groups[name]
		out = append(out, domain.SLASummary{
			Department:    name,
			Rows:          g.rows,
			RowsMet:       g.met,
			CompliancePct: round1(100 * float64(g.met) / float64(g.rows)),
		})
	}
	return out
}

// DepartmentShares returns completed totals per department for
// proportion charts, ordered by name.
func DepartmentShares(ds domain.Dataset) []domain.DepartmentShare {
	groups, names := groupByDepartment(ds)
	out := make([]domain.DepartmentShare, 0, len(names))
	for _, name := range names {
		out = append(out, domain.DepartmentShare{Department: name, TasksCompleted: groups[name].completed})
	}
	return out
}

// DateTrend groups the view by date, ascending.
func DateTrend(ds domain.Dataset) []domain.DateTrendPoint {
	type totals struct{ assigned, completed int }
	byDate := make(map[int64]*totals)
	keys := make([]int64, 0, 32)
	for _, r := range ds.Records {
		key := r.Date.Unix()
		t, ok := byDate[key]
		if !ok {
			t = &totals{}
			byDate[key] = t
			keys = append(keys, key)
		}
		t.assigned += r.TasksAssigned
		t.completed += r.TasksCompleted
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]domain.DateTrendPoint, 0, len(keys))
	for _, key := range keys {
		t := byDate[key]
		out = append(out, domain.DateTrendPoint{
			Date:           time.Unix(key, 0).UTC().Format(domain.DateLayout),
			TasksAssigned:  t.assigned,
			TasksCompleted: t.completed,
		})
	}
	return out
}
