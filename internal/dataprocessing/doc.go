// Package dataprocessing implements the dataset pipeline behind the
// dashboard: loading, filtering and aggregation.
//
// # Loading
//
// A Loader parses CSV or .xlsx uploads into a domain.Dataset. The header
// must contain the six dataset columns by exact name in any order; extra
// columns are ignored. Malformed cells fail the whole load with an
// *errors.DataFormatError naming the column and line.
//
// GenerateSample produces the deterministic demonstration dataset.
//
// # Views
//
// Filter narrows a dataset by department and inclusive date range and
// always returns a new Dataset. ComputeKPIs, DepartmentSummaries,
// DateTrend, SLASummaries, DepartmentShares and SortTable are pure
// functions of a view and never fail on an empty one.
//
//	view := dataprocessing.Filter(ds, domain.Filter{Department: "IT"})
//	kpis := dataprocessing.ComputeKPIs(view)
package dataprocessing
