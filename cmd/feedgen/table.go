package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCellWidth truncates long cells such as descriptions.
const maxCellWidth = 48

// writeTable prints rows as space-aligned columns. Widths are measured in
// terminal cells, so wide characters stay aligned.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	colWidths := make([]int, len(headers))
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, headers)
	for _, row := range rows {
		line := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				line[i] = runewidth.Truncate(oneLine(row[i]), maxCellWidth, "…")
			}
		}
		cells = append(cells, line)
	}

	for _, row := range cells {
		for i, cell := range row {
			if width := runewidth.StringWidth(cell); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	var sb strings.Builder
	for _, row := range cells {
		sb.Reset()
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, colWidths[i]))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
