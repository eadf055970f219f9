package storage

import (
	"reflect"
	"strings"
	"testing"

	"icsv/internal/icsv"
	"icsv/internal/missing"
)

// TestValuesForInsert verifies type conversion, NULL mapping for missing
// cells, trimming, and short-row padding.
func TestValuesForInsert(t *testing.T) {
	t.Parallel()

	sch := icsv.Schema{
		Fields: []icsv.Field{
			{Name: "id", Type: "integer"},
			{Name: "temp", Type: "number"},
			{Name: "day", Type: "datetime"},
			{Name: "note", Type: "string"},
		},
	}
	rows := [][]string{
		{"1", " -3.5 ", "2021-01-01T00:00:00", " ok "},
		{"2", "NA", "2021-01-02T00:00:00", ""},
		{"3"}, // short row: remaining cells are missing
	}

	got, err := ValuesForInsert(sch, missing.DefaultSet(), rows)
	if err != nil {
		t.Fatalf("ValuesForInsert: %v", err)
	}

	want := [][]any{
		{int64(1), -3.5, "2021-01-01T00:00:00", "ok"},
		{int64(2), nil, "2021-01-02T00:00:00", nil},
		{int64(3), nil, nil, nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("values=%#v, want %#v", got, want)
	}
}

// TestValuesForInsertBadCell verifies the error carries row and column
// context for a cell that fails numeric conversion.
func TestValuesForInsertBadCell(t *testing.T) {
	t.Parallel()

	sch := icsv.Schema{
		Fields: []icsv.Field{{Name: "id", Type: "integer"}},
	}

	_, err := ValuesForInsert(sch, missing.DefaultSet(), [][]string{{"1"}, {"x7"}})
	if err == nil {
		t.Fatalf("expected error for non-integer cell")
	}
	if !strings.Contains(err.Error(), "row 2") || !strings.Contains(err.Error(), `"id"`) {
		t.Fatalf("error missing row/column context: %v", err)
	}
}

// TestValuesForInsertEmpty verifies zero rows convert to an empty slice.
func TestValuesForInsertEmpty(t *testing.T) {
	t.Parallel()

	got, err := ValuesForInsert(icsv.Schema{}, missing.DefaultSet(), nil)
	if err != nil {
		t.Fatalf("ValuesForInsert: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("rows=%d, want 0", len(got))
	}
}
