package dataprocessing

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "opsdash/internal/errors"
	"opsdash/pkg/contracts/domain"
)

// WorkbookDataSheet is the sheet read from uploaded workbooks when present.
// It matches the raw-data sheet written by the exporter.
const WorkbookDataSheet = "Operations Data"

// dateLayouts are tried in order for the Date column.
var dateLayouts = []string{
	domain.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// Loader turns uploaded files into datasets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "loader"))}
}

// Parse dispatches on the file extension: .xlsx is read as a workbook,
// everything else as CSV.
func (l *Loader) Parse(ctx context.Context, filename string, r io.Reader) (domain.Dataset, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return l.ParseWorkbook(ctx, r)
	}
	return l.ParseCSV(ctx, r)
}

// ParseCSV reads a header row followed by data rows. The six dataset
// columns must all be present by exact name; their order is free and
// additional columns are ignored.
func (l *Loader) ParseCSV(ctx context.Context, r io.Reader) (domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.Dataset{}, apperrors.MissingColumnError(domain.ColumnDate)
	}
	if err != nil {
		return domain.Dataset{}, csvError(err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return domain.Dataset{}, err
	}

	records := make([]domain.Record, 0, 64)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		rec, err := index.record(row, line, parseDate)
		if err != nil {
			return domain.Dataset{}, err
		}
		records = append(records, rec)
	}

	l.logger.DebugContext(ctx, "csv parsed", slog.Int("rows", len(records)))
	return domain.NewDataset(records), nil
}

// ParseWorkbook reads the "Operations Data" sheet of an .xlsx workbook,
// or its first sheet when no such sheet exists, with the same column rules
// as ParseCSV. Date cells may hold either text or Excel serial dates.
func (l *Loader) ParseWorkbook(ctx context.Context, r io.Reader) (domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.Dataset{}, &apperrors.DataFormatError{Reason: "file is not a readable workbook", Cause: err}
	}
	defer f.Close()

	sheet := WorkbookDataSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.Dataset{}, &apperrors.DataFormatError{Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Dataset{}, &apperrors.DataFormatError{Reason: fmt.Sprintf("sheet %q cannot be read", sheet), Cause: err}
	}

	// Blank rows were never data; keep line numbers aligned with the sheet.
	headerAt := -1
	for i, row := range rows {
		if !blankRow(row) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return domain.Dataset{}, apperrors.MissingColumnError(domain.ColumnDate)
	}

	index, err := columnIndex(rows[headerAt])
	if err != nil {
		return domain.Dataset{}, err
	}

	records := make([]domain.Record, 0, len(rows)-headerAt-1)
	for i := headerAt + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		rec, err := index.record(rows[i], i+1, parseWorkbookDate)
		if err != nil {
			return domain.Dataset{}, err
		}
		records = append(records, rec)
	}

	l.logger.DebugContext(ctx, "workbook parsed",
		slog.String("sheet", sheet),
		slog.Int("rows", len(records)))
	return domain.NewDataset(records), nil
}

// columns maps each dataset column to its position in the input row.
type columns [6]int

func columnIndex(header []string) (columns, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	var idx columns
	for i, name := range domain.Columns {
		pos, ok := positions[name]
		if !ok {
			return idx, apperrors.MissingColumnError(name)
		}
		idx[i] = pos
	}
	return idx, nil
}

func (c columns) cell(row []string, col int) string {
	pos := c[col]
	if pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func (c columns) record(row []string, line int, dates func(string) (time.Time, error)) (domain.Record, error) {
	var (
		rec domain.Record
		err error
	)

	raw := c.cell(row, 0)
	if rec.Date, err = dates(raw); err != nil {
		return rec, apperrors.InvalidValueError(domain.ColumnDate, line, raw, err)
	}

	rec.Department = c.cell(row, 1)

	raw = c.cell(row, 2)
	if rec.TasksAssigned, err = parseInt(raw); err != nil {
		return rec, apperrors.InvalidValueError(domain.ColumnTasksAssigned, line, raw, err)
	}

	raw = c.cell(row, 3)
	if rec.TasksCompleted, err = parseInt(raw); err != nil {
		return rec, apperrors.InvalidValueError(domain.ColumnTasksCompleted, line, raw, err)
	}

	raw = c.cell(row, 4)
	if rec.SLATarget, err = parseFloat(raw); err != nil {
		return rec, apperrors.InvalidValueError(domain.ColumnSLATarget, line, raw, err)
	}

	raw = c.cell(row, 5)
	if rec.CompletionTime, err = parseFloat(raw); err != nil {
		return rec, apperrors.InvalidValueError(domain.ColumnCompletionTime, line, raw, err)
	}

	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// parseWorkbookDate accepts Excel serial dates in addition to text dates.
func parseWorkbookDate(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return domain.NormalizeDate(t), nil
	}
	return parseDate(s)
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

// parseInt accepts integral float spellings such as "12.0".
func parseInt(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return &apperrors.DataFormatError{Line: parseErr.Line, Reason: "file is not valid CSV", Cause: parseErr.Err}
	}
	return &apperrors.DataFormatError{Reason: "file cannot be read", Cause: err}
}
