package dataprocessing

import (
	"math"

	"opsdash/pkg/contracts/domain"
)

// ComputeKPIs derives the scalar indicators of a view.
//
// CompletionRate is guarded and reads 0 when nothing was assigned.
// SLACompliance and AvgCompletionTime are means over rows and are undefined
// on an empty view. Pending is not clamped, so it goes negative when rows
// report more completed than assigned.
func ComputeKPIs(ds domain.Dataset) domain.KPISummary {
	var (
		total, completed int
		met              int
		timeSum          float64
	)
	for _, r := range ds.Records {
		total += r.TasksAssigned
		completed += r.TasksCompleted
		if r.MetSLA() {
			met++
		}
		timeSum += r.CompletionTime
	}

	k := domain.KPISummary{
		TotalTasks:        total,
		CompletedTasks:    completed,
		PendingTasks:      total - completed,
		SLACompliance:     domain.Undefined(),
		AvgCompletionTime: domain.Undefined(),
	}
	if total > 0 {
		k.CompletionRate = 100 * float64(completed) / float64(total)
	}
	if n := ds.Len(); n > 0 {
		k.SLACompliance = domain.NullableFloat(100 * float64(met) / float64(n))
		k.AvgCompletionTime = domain.NullableFloat(timeSum / float64(n))
	}
	return k
}

// round1 rounds to one decimal place, ties to even.
func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
