package icsv

import (
	"bytes"
	"reflect"
	"testing"

	"icsv/internal/infer"
	"icsv/internal/missing"
)

// TestBuildSchemaConstraints verifies when a constraints object appears:
// never for a fully unconstrained column, and carrying exactly the facts the
// profile established.
func TestBuildSchemaConstraints(t *testing.T) {
	t.Parallel()

	profiles := []ColumnProfile{
		{Name: "id", Type: infer.Integer, Min: int64(1), Max: int64(3), Required: true},
		{Name: "temp", Type: infer.Number, Min: float64(-3.5), Max: float64(0.5)},
		{Name: "day", Type: infer.Datetime, Min: "2021-01-01T00:00:00", Max: "2021-01-31T00:00:00", Required: true},
		{Name: "tag", Type: infer.String, Required: true},
		{Name: "note", Type: infer.String, MissingCount: 2},
	}

	sch := BuildSchema(profiles, missing.DefaultSet())

	if len(sch.Fields) != 5 {
		t.Fatalf("fields = %d, want 5", len(sch.Fields))
	}

	id := sch.Fields[0]
	if id.Constraints == nil || id.Constraints.Minimum != int64(1) || id.Constraints.Maximum != int64(3) || !id.Constraints.Required {
		t.Fatalf("id constraints = %+v", id.Constraints)
	}

	temp := sch.Fields[1]
	if temp.Constraints == nil || temp.Constraints.Minimum != float64(-3.5) || temp.Constraints.Required {
		t.Fatalf("temp constraints = %+v", temp.Constraints)
	}

	day := sch.Fields[2]
	if day.Constraints == nil || day.Constraints.Minimum != "2021-01-01T00:00:00" {
		t.Fatalf("day constraints = %+v", day.Constraints)
	}

	// A string column with no missing cells still records required.
	tag := sch.Fields[3]
	if tag.Constraints == nil || !tag.Constraints.Required || tag.Constraints.Minimum != nil {
		t.Fatalf("tag constraints = %+v", tag.Constraints)
	}

	// Nothing established: the object is omitted, not emitted empty.
	if sch.Fields[4].Constraints != nil {
		t.Fatalf("note constraints = %+v, want nil", sch.Fields[4].Constraints)
	}

	if !reflect.DeepEqual(sch.MissingValues, missing.DefaultSet().Tokens()) {
		t.Fatalf("missingValues = %v", sch.MissingValues)
	}
}

// TestWriteSchemaGolden pins the JSON rendering: two-space indent, omitted
// empty keys, typed extrema and the canonical missingValues order.
func TestWriteSchemaGolden(t *testing.T) {
	t.Parallel()

	profiles := []ColumnProfile{
		{Name: "id", Type: infer.Integer, Min: int64(1), Max: int64(3), Required: true},
		{Name: "note", Type: infer.String},
	}
	sch := BuildSchema(profiles, missing.DefaultSet())

	var buf bytes.Buffer
	if err := WriteSchema(&buf, sch); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}

	want := `{
  "fields": [
    {
      "name": "id",
      "type": "integer",
      "constraints": {
        "minimum": 1,
        "maximum": 3,
        "required": true
      }
    },
    {
      "name": "note",
      "type": "string"
    }
  ],
  "missingValues": [
    "",
    "NA",
    "N/A",
    "na",
    "n/a",
    "NULL",
    "null",
    "nan",
    "NaN",
    "-999",
    "-999.0",
    "-999.000000"
  ]
}
`
	if got := buf.String(); got != want {
		t.Fatalf("schema mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

// TestSchemaRoundTrip verifies ReadSchema on WriteSchema output. JSON
// numerics decode as float64; everything else survives unchanged.
func TestSchemaRoundTrip(t *testing.T) {
	t.Parallel()

	profiles := []ColumnProfile{
		{Name: "id", Type: infer.Integer, Min: int64(2), Max: int64(9), Required: true},
		{Name: "day", Type: infer.Datetime, Min: "2021-01-01T00:00:00", Max: "2021-01-02T00:00:00"},
	}
	sch := BuildSchema(profiles, missing.DefaultSet())

	var buf bytes.Buffer
	if err := WriteSchema(&buf, sch); err != nil {
		t.Fatalf("WriteSchema: %v", err)
	}
	got, err := ReadSchema(&buf)
	if err != nil {
		t.Fatalf("ReadSchema: %v", err)
	}

	if len(got.Fields) != 2 || got.Fields[0].Name != "id" || got.Fields[1].Name != "day" {
		t.Fatalf("fields = %+v", got.Fields)
	}
	if got.Fields[0].Constraints.Minimum != float64(2) {
		t.Fatalf("id minimum = %#v, want float64(2)", got.Fields[0].Constraints.Minimum)
	}
	if got.Fields[1].Constraints.Maximum != "2021-01-02T00:00:00" {
		t.Fatalf("day maximum = %#v", got.Fields[1].Constraints.Maximum)
	}
	if !reflect.DeepEqual(got.MissingValues, sch.MissingValues) {
		t.Fatalf("missingValues = %v", got.MissingValues)
	}
}
