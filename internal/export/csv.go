package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV emits rows as RFC 4180 CSV, UTF-8, header row = mapping order
// (spec.md §4.9 step 7). encoding/csv already handles quoting/escaping
// correctly; no third-party CSV writer in the pack offers anything beyond
// it for this shape of data.
func WriteCSV(w io.Writer, columns []string, rows []Row) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return writer.Error()
}
