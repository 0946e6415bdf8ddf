package output

import (
	"fmt"
	"io"

	"github.com/rodaine/table"
)

// RenderTable renders a table to the writer for rich mode. header styles
// the header cells; nil leaves them plain.
func RenderTable(w io.Writer, columns []Column, rows []map[string]string, header func(string) string) {
	if len(rows) == 0 {
		return
	}

	headers := make([]interface{}, len(columns))
	for i, col := range columns {
		headers[i] = col.Name
	}
	tbl := table.New(headers...).WithWriter(w)
	if header != nil {
		tbl = tbl.WithHeaderFormatter(func(format string, vals ...interface{}) string {
			return header(fmt.Sprintf(format, vals...))
		})
	}

	// Add data rows
	for _, row := range rows {
		rowData := make([]interface{}, len(columns))
		for i, col := range columns {
			value := row[col.Key]
			// Truncate if width is specified and value exceeds it
			if col.Width > 0 {
				value = TruncateString(value, col.Width)
			}
			rowData[i] = value
		}
		tbl.AddRow(rowData...)
	}

	tbl.Print()
}

// TruncateString truncates a string to maxLen and adds "..." if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
