package storage

import (
	"fmt"
	"strconv"
	"strings"

	"icsv/internal/icsv"
	"icsv/internal/missing"
)

// ValuesForInsert converts document data cells into driver-ready values.
//
// Cells the missing model recognizes insert as SQL NULL. Everything else is
// trimmed and converted per the schema's logical column type: integer →
// int64, number → float64, datetime and string pass through as text. The
// schema's field order must match the row cell order; short rows read as
// empty (missing) cells.
//
// Errors:
//   - A non-missing cell that fails numeric conversion aborts with row and
//     column context. Documents produced by this module always convert, so
//     a failure points at a hand-edited document or the wrong schema file.
func ValuesForInsert(sch icsv.Schema, set missing.Set, rows [][]string) ([][]any, error) {
	out := make([][]any, len(rows))
	for ri, row := range rows {
		vals := make([]any, len(sch.Fields))
		for ci, f := range sch.Fields {
			var cell string
			if ci < len(row) {
				cell = row[ci]
			}
			if set.IsMissing(cell) {
				vals[ci] = nil
				continue
			}

			t := strings.TrimSpace(cell)
			switch f.Type {
			case "integer":
				n, err := strconv.ParseInt(t, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: parse integer %q: %w", ri+1, f.Name, cell, err)
				}
				vals[ci] = n
			case "number":
				x, err := strconv.ParseFloat(t, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d column %q: parse number %q: %w", ri+1, f.Name, cell, err)
				}
				vals[ci] = x
			default:
				vals[ci] = t
			}
		}
		out[ri] = vals
	}
	return out, nil
}
