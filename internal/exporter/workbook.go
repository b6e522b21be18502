package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"opsdash/internal/dataprocessing"
	"opsdash/pkg/contracts/domain"
)

// Sheet names of the exported workbook.
const (
	SheetData        = dataprocessing.WorkbookDataSheet
	SheetKPI         = "KPI Summary"
	SheetDepartments = "Department Summary"
)

// KPI sheet metric labels, in row order.
const (
	MetricTotalTasks        = "Total Tasks"
	MetricCompletedTasks    = "Completed Tasks"
	MetricPendingTasks      = "Pending Tasks"
	MetricCompletionRate    = "Completion Rate"
	MetricSLACompliance     = "SLA Compliance"
	MetricAvgCompletionTime = "Avg Completion Time"
)

var departmentHeaders = []interface{}{
	domain.ColumnDepartment,
	domain.ColumnTasksAssigned,
	domain.ColumnTasksCompleted,
	"completion_rate_pct",
}

// WriteWorkbook writes the dataset, its KPI summary and its department
// summary as three sheets of one .xlsx document.
//
// Dates in the data sheet are stored as ISO text and numbers as numbers,
// which keeps the sheet loadable by the data loader.
func WriteWorkbook(w io.Writer, ds domain.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}
	if err := writeDataSheet(f, ds, bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetKPI); err != nil {
		return fmt.Errorf("failed to add kpi sheet: %w", err)
	}
	if err := writeKPISheet(f, dataprocessing.ComputeKPIs(ds), bold); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetDepartments); err != nil {
		return fmt.Errorf("failed to add department sheet: %w", err)
	}
	if err := writeDepartmentSheet(f, dataprocessing.DepartmentSummaries(ds), bold); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeDataSheet(f *excelize.File, ds domain.Dataset, bold int) error {
	headers := make([]interface{}, len(domain.Columns))
	for i, c := range domain.Columns {
		headers[i] = c
	}
	if err := writeHeader(f, SheetData, headers, bold); err != nil {
		return err
	}

	for i, r := range ds.Records {
		row := []interface{}{
			r.Date.Format(domain.DateLayout),
			r.Department,
			r.TasksAssigned,
			r.TasksCompleted,
			r.SLATarget,
			r.CompletionTime,
		}
		if err := setRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(SheetData, "A", "A", 12)
	f.SetColWidth(SheetData, "B", "B", 20)
	f.SetColWidth(SheetData, "C", "F", 16)
	return nil
}

func writeKPISheet(f *excelize.File, k domain.KPISummary, bold int) error {
	if err := writeHeader(f, SheetKPI, []interface{}{"Metric", "Value"}, bold); err != nil {
		return err
	}

	var avg interface{} = NotAvailable
	if k.AvgCompletionTime.Valid() {
		avg = round2(k.AvgCompletionTime.Float64())
	}

	rows := [][]interface{}{
		{MetricTotalTasks, k.TotalTasks},
		{MetricCompletedTasks, k.CompletedTasks},
		{MetricPendingTasks, k.PendingTasks},
		{MetricCompletionRate, formatPercent(domain.NullableFloat(k.CompletionRate))},
		{MetricSLACompliance, formatPercent(k.SLACompliance)},
		{MetricAvgCompletionTime, avg},
	}
	for i, row := range rows {
		if err := setRow(f, SheetKPI, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(SheetKPI, "A", "A", 24)
	f.SetColWidth(SheetKPI, "B", "B", 14)
	return nil
}

func writeDepartmentSheet(f *excelize.File, summaries []domain.DepartmentSummary, bold int) error {
	if err := writeHeader(f, SheetDepartments, departmentHeaders, bold); err != nil {
		return err
	}

	for i, s := range summaries {
		row := []interface{}{s.Department, s.TasksAssigned, s.TasksCompleted, s.CompletionRatePct}
		if err := setRow(f, SheetDepartments, i+2, row); err != nil {
			return err
		}
	}

	f.SetColWidth(SheetDepartments, "A", "A", 20)
	f.SetColWidth(SheetDepartments, "B", "D", 18)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []interface{}, style int) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}
