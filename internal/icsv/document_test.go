package icsv

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"icsv/internal/infer"
	"icsv/internal/missing"
	"icsv/internal/table"
	"icsv/internal/testutil"
)

func fixedClock() time.Time {
	return time.Date(2021, 5, 4, 12, 30, 0, 0, time.UTC)
}

//
// Metadata.Lines
//

// TestMetadataLines verifies the fixed key order and the omission rules:
// optional keys never appear empty, and nodata appears exactly when the
// token is non-empty or was explicitly overridden.
func TestMetadataLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		meta Metadata
		want []string
	}{
		{
			name: "all keys",
			meta: Metadata{
				AppProfile: "envidat",
				FieldDelim: "|",
				Rows:       2,
				Columns:    3,
				Created:    fixedClock(),
				Nodata:     "NA",
				Geometry:   "column:lat,lon",
				SRID:       "EPSG:4326",
			},
			want: []string{
				"iCSV_version = 1.0",
				"application_profile = envidat",
				"field_delimiter = |",
				"rows = 2",
				"columns = 3",
				"creation_date = 2021-05-04T12:30:00Z",
				"nodata = NA",
				"geometry = column:lat,lon",
				"srid = EPSG:4326",
				"generator = " + generatorTag,
			},
		},
		{
			name: "optional keys omitted",
			meta: Metadata{FieldDelim: ";", Rows: 0, Columns: 1, Created: fixedClock()},
			want: []string{
				"iCSV_version = 1.0",
				"field_delimiter = ;",
				"rows = 0",
				"columns = 1",
				"creation_date = 2021-05-04T12:30:00Z",
				"generator = " + generatorTag,
			},
		},
		{
			name: "empty nodata emitted when overridden",
			meta: Metadata{FieldDelim: "|", Columns: 1, Created: fixedClock(), Nodata: "", NodataSet: true},
			want: []string{
				"iCSV_version = 1.0",
				"field_delimiter = |",
				"rows = 0",
				"columns = 1",
				"creation_date = 2021-05-04T12:30:00Z",
				"nodata = ",
				"generator = " + generatorTag,
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.meta.Lines(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Lines() =\n%v\nwant\n%v", got, tt.want)
			}
		})
	}
}

//
// Build
//

// TestBuild verifies the end-to-end pipeline on a small table: per-column
// types and statistics, table-wide metadata, geometry detection and the
// schema document, all positionally aligned.
func TestBuild(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2021-01-01"},
			{"2", "2021-01-02"},
		},
	}

	doc, sch := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "|", now: fixedClock})

	if doc.Meta.Rows != 2 || doc.Meta.Columns != 2 {
		t.Fatalf("meta counts = (%d,%d), want (2,2)", doc.Meta.Rows, doc.Meta.Columns)
	}
	if len(doc.Profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(doc.Profiles))
	}

	a := doc.Profiles[0]
	if a.Type != infer.Integer || a.Min != int64(1) || a.Max != int64(2) || !a.Required {
		t.Fatalf("profile a = %+v, want required integer 1..2", a)
	}

	b := doc.Profiles[1]
	if b.Type != infer.Datetime || !b.Required {
		t.Fatalf("profile b = %+v, want required datetime", b)
	}
	if b.Min != "2021-01-01T00:00:00" || b.Max != "2021-01-02T00:00:00" {
		t.Fatalf("b min/max = %v/%v", b.Min, b.Max)
	}

	if doc.Meta.Geometry != "" || doc.Meta.SRID != "" {
		t.Fatalf("unexpected geometry hint: %q %q", doc.Meta.Geometry, doc.Meta.SRID)
	}
	if doc.Meta.Nodata != "" || doc.Meta.NodataSet {
		t.Fatalf("unexpected nodata: %q", doc.Meta.Nodata)
	}

	if len(sch.Fields) != 2 || sch.Fields[0].Name != "a" || sch.Fields[1].Name != "b" {
		t.Fatalf("schema fields misaligned: %+v", sch.Fields)
	}
	if sch.Fields[0].Constraints == nil || sch.Fields[0].Constraints.Minimum != int64(1) {
		t.Fatalf("schema constraints for a = %+v", sch.Fields[0].Constraints)
	}
}

// TestBuildZeroRows verifies the degenerate table: every column classifies
// as string with no constraints, and the run does not fail.
func TestBuildZeroRows(t *testing.T) {
	t.Parallel()

	tbl := table.Table{Header: []string{"x", "y"}}
	doc, sch := Build(tbl, missing.DefaultSet(), Options{now: fixedClock})

	if doc.Meta.Rows != 0 || doc.Meta.Columns != 2 {
		t.Fatalf("meta counts = (%d,%d), want (0,2)", doc.Meta.Rows, doc.Meta.Columns)
	}
	for i, p := range doc.Profiles {
		if p.Type != infer.String || p.Required || p.Min != nil || p.Max != nil {
			t.Fatalf("profile %d = %+v, want unconstrained string", i, p)
		}
	}
	for _, f := range sch.Fields {
		if f.Type != "string" || f.Constraints != nil {
			t.Fatalf("schema field %+v, want unconstrained string", f)
		}
	}
}

// TestBuildIdempotent verifies that two runs over identical input produce
// identical documents and schemas when the clock is held fixed.
func TestBuildIdempotent(t *testing.T) {
	t.Parallel()

	tbl := func() table.Table {
		return table.Table{
			Header: []string{"id", "v"},
			Rows:   [][]string{{"1", "NA"}, {"2", "0.5"}},
		}
	}
	opts := Options{OutputDelim: "|", now: fixedClock}
	set := missing.DefaultSet()

	doc1, sch1 := Build(tbl(), set, opts)
	doc2, sch2 := Build(tbl(), set, opts)

	if !reflect.DeepEqual(doc1, doc2) {
		t.Fatalf("documents differ:\n%+v\n%+v", doc1, doc2)
	}
	if !reflect.DeepEqual(sch1, sch2) {
		t.Fatalf("schemas differ:\n%+v\n%+v", sch1, sch2)
	}
}

// TestBuildGeometryAndNodata verifies table-wide facts: the lat/lon hint
// lands in metadata with its SRID, and the most frequent placeholder becomes
// the nodata token.
func TestBuildGeometryAndNodata(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"id", "lat", "lon", "value"},
		Rows: [][]string{
			{"1", "46.5", "7.9", "NA"},
			{"2", "NA", "8.1", "NA"},
			{"3", "47.0", "8.0", "-999"},
		},
	}

	doc, _ := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "|", now: fixedClock})

	if doc.Meta.Geometry != "column:lat,lon" {
		t.Fatalf("geometry = %q, want column:lat,lon", doc.Meta.Geometry)
	}
	if doc.Meta.SRID != "EPSG:4326" {
		t.Fatalf("srid = %q, want EPSG:4326", doc.Meta.SRID)
	}
	if doc.Meta.Nodata != "NA" {
		t.Fatalf("nodata = %q, want NA", doc.Meta.Nodata)
	}
}

// TestBuildNodataOverride verifies that an explicit override is used
// verbatim and recorded even when it is empty.
func TestBuildNodataOverride(t *testing.T) {
	t.Parallel()

	tbl := table.Table{Header: []string{"a"}, Rows: [][]string{{"NA"}}}

	token := "-7777"
	doc, _ := Build(tbl, missing.DefaultSet(), Options{Nodata: &token, now: fixedClock})
	if doc.Meta.Nodata != "-7777" || !doc.Meta.NodataSet {
		t.Fatalf("nodata = %q (set=%v), want verbatim override", doc.Meta.Nodata, doc.Meta.NodataSet)
	}

	empty := ""
	doc, _ = Build(tbl, missing.DefaultSet(), Options{Nodata: &empty, now: fixedClock})
	if doc.Meta.Nodata != "" || !doc.Meta.NodataSet {
		t.Fatalf("empty override not recorded: %+v", doc.Meta)
	}
}

// TestBuildNormalizesRows verifies that ragged input rows are padded or cut
// to header width before profiling and in the emitted data block.
func TestBuildNormalizesRows(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"1"}, {"2", "x", "extra"}},
	}

	doc, _ := Build(tbl, missing.DefaultSet(), Options{now: fixedClock})

	want := [][]string{{"1", ""}, {"2", "x"}}
	if !reflect.DeepEqual(doc.Rows, want) {
		t.Fatalf("rows = %v, want %v", doc.Rows, want)
	}
	// Column b sees one missing cell from the padded row.
	if doc.Profiles[1].MissingCount != 1 {
		t.Fatalf("missing count = %d, want 1", doc.Profiles[1].MissingCount)
	}
}

// TestBuildLogsDecisions verifies the debug stream: the selected nodata
// token and one entry per profiled column with its final type.
func TestBuildLogsDecisions(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"id", "temp"},
		Rows:   [][]string{{"1", "NA"}, {"2", "0.5"}},
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Build(tbl, missing.DefaultSet(), Options{Logger: logger, now: fixedClock})

	out := buf.String()
	for _, want := range []string{
		"nodata selected", "token=NA",
		"column profiled", "column=id", "type=integer", "column=temp", "type=number",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}

	// The same stream routes to the test log when debugging a fixture.
	Build(tbl, missing.DefaultSet(), Options{Logger: testutil.NewTestLogger(t), now: fixedClock})
}

//
// fieldsLines
//

// TestFieldsLines verifies the six aligned rows and the stringification of
// typed extrema (absent renders empty, floats use the shortest form).
func TestFieldsLines(t *testing.T) {
	t.Parallel()

	profiles := []ColumnProfile{
		{Name: "id", Type: infer.Integer, Min: int64(1), Max: int64(9), MissingCount: 0},
		{Name: "temp", Type: infer.Number, Min: float64(-0.5), Max: float64(2), MissingCount: 3},
		{Name: "day", Type: infer.Datetime, Min: "2021-01-01T00:00:00", Max: "2021-02-01T00:00:00", MissingCount: 0, Description: "obs day"},
		{Name: "note", Type: infer.String, MissingCount: 1},
	}

	got := fieldsLines(profiles, "|")
	want := []string{
		"fields = id|temp|day|note",
		"types = integer|number|datetime|string",
		"min = 1|-0.5|2021-01-01T00:00:00|",
		"max = 9|2|2021-02-01T00:00:00|",
		"missing_count = 0|3|0|1",
		"description = ||obs day|",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("fieldsLines =\n%v\nwant\n%v", got, want)
	}
}
