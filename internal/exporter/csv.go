package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"opsdash/pkg/contracts/domain"
)

// WriteCSV writes a header row and one line per record, in column order,
// without an index column.
func WriteCSV(w io.Writer, ds domain.Dataset) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(domain.Columns); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	row := make([]string, len(domain.Columns))
	for i, r := range ds.Records {
		row[0] = r.Date.Format(domain.DateLayout)
		row[1] = r.Department
		row[2] = strconv.Itoa(r.TasksAssigned)
		row[3] = strconv.Itoa(r.TasksCompleted)
		row[4] = formatFloat(r.SLATarget)
		row[5] = formatFloat(r.CompletionTime)
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
