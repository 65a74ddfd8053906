package loader

import (
	"encoding/csv"
	"fmt"
	"io"

	"datadash/internal/models"
)

// ExportCSV writes rows as RFC 4180 CSV: a header line followed by one
// record per row, with embedded quotes and commas escaped so the output
// round-trips through any conforming parser.
func ExportCSV(w io.Writer, cols []string, rows []models.Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			record[i] = row.Get(col).String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
