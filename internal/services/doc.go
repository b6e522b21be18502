// Package services implements the business logic layer of the operations
// dashboard. It sits between the HTTP handlers (and the CLI) and the pure
// data-processing stages, so handlers never touch datasets directly.
//
// # Architecture
//
// Services follow these principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Immutable session state threaded through every request
//
// # Available Services
//
//	- DashboardService: load -> filter -> aggregate pipeline, plus exports
//	- HealthService: health, readiness, liveness and version reporting
//
// # Request Pipeline
//
// Every dashboard request re-runs the whole pipeline synchronously:
//
//	state   := store.Get(sessionID)          // or the sample dataset
//	view    := dataprocessing.Filter(state.Dataset, filter)
//	kpis    := dataprocessing.ComputeKPIs(view)
//	summary := dataprocessing.DepartmentSummaries(view)
//
// Nothing is cached between requests apart from the session's dataset and
// the generated sample.
//
// # Error Handling
//
// Services return typed errors that handlers transform into problems:
//
//	- *errors.DataFormatError for unreadable uploads
//	- errors.ErrEmptyInput when no dataset is loaded and sample mode is off
//	- validation errors for unknown sort columns or orders
//
// # Testing
//
// Services are tested against the in-memory session store with a fixed
// clock; goroutine leaks are checked in TestMain.
package services
