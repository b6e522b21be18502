// Package api contains the request contracts of the operations dashboard HTTP API.
// Version v1 represents the current stable API version.
package api

// DashboardQuery holds the query parameters of GET /api/dashboard.
// Empty values fall back to the defaults of the loaded dataset.
type DashboardQuery struct {
	Department string `json:"department" query:"department" validate:"omitempty,max=128"`
	Start      string `json:"start" query:"start" validate:"omitempty,datetime=2006-01-02"`
	End        string `json:"end" query:"end" validate:"omitempty,datetime=2006-01-02"`
	Sort       string `json:"sort" query:"sort" validate:"omitempty,oneof=Date Department Tasks_Assigned Tasks_Completed SLA_Target Completion_Time"`
	Order      string `json:"order" query:"order" validate:"omitempty,oneof=asc desc"`
	Sample     string `json:"sample" query:"sample" validate:"omitempty,oneof=true false 1 0"`
}

// SampleRequest optionally overrides the generator seed for POST /api/dataset/sample.
type SampleRequest struct {
	Seed *uint64 `json:"seed,omitempty"`
}
