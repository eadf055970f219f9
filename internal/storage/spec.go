// The spec types live in the parent package so command code and backend
// packages can share them without circular imports.
package storage

import (
	"fmt"

	"icsv/internal/icsv"
)

// TableSpec describes one destination table derived from a document schema.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

// ColumnSpec describes one destination column. Type holds the document's
// logical type (integer, number, datetime, string); backends map it to a
// dialect type at DDL time.
type ColumnSpec struct {
	Name     string
	Type     string
	Nullable bool
}

// ColumnNames returns the insert column list in header order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// SpecFromSchema derives the destination table spec from a document schema.
//
// Field names are normalized into safe SQL identifiers (lowercased,
// separator runs collapsed to "_", truncated to 63 bytes). Names that
// normalize to nothing become positional ("col_0", "col_1", …); duplicates
// get a numeric suffix so the insert column list stays unambiguous.
// A column is NOT NULL only when its schema constraints mark it required.
func SpecFromSchema(table string, sch icsv.Schema) TableSpec {
	cols := make([]ColumnSpec, 0, len(sch.Fields))
	seen := make(map[string]int, len(sch.Fields))

	for i, f := range sch.Fields {
		name := TruncateIdent(NormalizeIdent(f.Name))
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		base := name
		if n := seen[base]; n > 0 {
			name = fmt.Sprintf("%s_%d", base, n+1)
		}
		seen[base]++

		required := f.Constraints != nil && f.Constraints.Required
		cols = append(cols, ColumnSpec{Name: name, Type: f.Type, Nullable: !required})
	}

	return TableSpec{Name: table, Columns: cols}
}
