// Package table defines the in-memory rectangular table exchanged between
// loaders and the inference pipeline.
package table

// Table is one fully materialized tabular input: an ordered header and the
// data rows beneath it. Header order is significant and duplicate names are
// not rejected. Rows may arrive ragged from a loader; call Normalize before
// profiling so every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Normalize pads short rows with empty cells and truncates long rows so that
// every row has exactly len(Header) cells. Safe to call more than once.
func (t *Table) Normalize() {
	width := len(t.Header)
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}
}

// Column returns the raw cells of column i in row order. Call Normalize
// first; out-of-range cells are returned as empty strings regardless.
func (t Table) Column(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// RowCount returns the number of data rows.
func (t Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the number of header columns.
func (t Table) ColumnCount() int { return len(t.Header) }
