package agent

import (
	"fmt"
	"strings"
)

const previewRows = 20

// FormatSQLResultAsText renders rows as a fixed-width text table capped at
// maxRows, the shape the synthesis model sees as context.
func FormatSQLResultAsText(columns []string, rows [][]any, maxRows int) string {
	if len(rows) == 0 {
		return "No results found."
	}

	display := rows
	if len(display) > maxRows {
		display = display[:maxRows]
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range display {
		for i, val := range row {
			if i >= len(widths) {
				break
			}
			if n := len(formatCell(val)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	pad := func(s string, w int) string {
		if len(s) >= w {
			return s
		}
		return s + strings.Repeat(" ", w-len(s))
	}

	header := make([]string, len(columns))
	rule := make([]string, len(columns))
	for i, c := range columns {
		header[i] = pad(c, widths[i])
		rule[i] = strings.Repeat("-", widths[i])
	}

	lines := []string{strings.Join(header, " | "), strings.Join(rule, "-+-")}
	for _, row := range display {
		cells := make([]string, len(columns))
		for i := range columns {
			var val any
			if i < len(row) {
				val = row[i]
			}
			cells[i] = pad(formatCell(val), widths[i])
		}
		lines = append(lines, strings.Join(cells, " | "))
	}

	if len(rows) > maxRows {
		lines = append(lines, fmt.Sprintf("... and %d more rows", len(rows)-maxRows))
	}
	return strings.Join(lines, "\n")
}

func formatCell(val any) string {
	if val == nil {
		return ""
	}
	return fmt.Sprint(val)
}
