package extract

import (
	"slices"

	"github.com/poiesic/pagewise/core"
)

// tableFromRows turns raw rows into a Table whose first row is the header.
// Rows wider than the header widen it with unnamed columns so that no cell
// is lost; shorter rows are padded with empty cells.
func tableFromRows(rows [][]string) core.Table {
	if len(rows) == 0 {
		return core.Table{Columns: []string{}, Rows: [][]string{}}
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	columns := alignRow(rows[0], width)
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		data = append(data, alignRow(row, width))
	}
	return core.Table{Columns: columns, Rows: data}
}

// alignRow returns row padded with "" to width cells.
func alignRow(row []string, width int) []string {
	aligned := make([]string, width)
	copy(aligned, row)
	return aligned
}

// rowWindow collects the data rows of one page under a header. A row wider
// than the header widens it with unnamed columns, and the widened header
// carries over to later pages.
type rowWindow struct {
	columns []string
	rows    [][]string
	size    int
}

func newRowWindow(header []string, size int) *rowWindow {
	return &rowWindow{
		columns: slices.Clone(header),
		rows:    make([][]string, 0, size),
		size:    size,
	}
}

// add appends row and reports whether the window is full.
func (w *rowWindow) add(row []string) bool {
	for len(w.columns) < len(row) {
		w.columns = append(w.columns, "")
	}
	w.rows = append(w.rows, row)
	return len(w.rows) >= w.size
}

func (w *rowWindow) empty() bool {
	return len(w.rows) == 0
}

// take returns the collected rows as a table aligned to the current header
// and starts a new window.
func (w *rowWindow) take() core.Table {
	width := len(w.columns)
	rows := make([][]string, len(w.rows))
	for i, row := range w.rows {
		rows[i] = alignRow(row, width)
	}
	w.rows = make([][]string, 0, w.size)
	return core.Table{Columns: slices.Clone(w.columns), Rows: rows}
}
