package icsv

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"icsv/internal/infer"
	"icsv/internal/missing"
	"icsv/internal/table"
)

// TestWriteDocumentGolden pins the complete serialized form: firstline,
// metadata key order, the six fields lines, the blank separators and the
// data block.
func TestWriteDocumentGolden(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"id", "lat", "lon", "note"},
		Rows: [][]string{
			{"1", "46.5", "7.9", "ok"},
			{"2", "NA", "8.1", ""},
		},
	}
	doc, _ := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "|", now: fixedClock})

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	want := `# iCSV 1.0 UTF-8
# [METADATA]
# iCSV_version = 1.0
# field_delimiter = |
# rows = 2
# columns = 4
# creation_date = 2021-05-04T12:30:00Z
# nodata = NA
# geometry = column:lat,lon
# srid = EPSG:4326
# generator = make_icsv/1.0.0

# [FIELDS]
# fields = id|lat|lon|note
# types = integer|number|number|string
# min = 1|46.5|7.9|
# max = 2|46.5|8.1|
# missing_count = 0|1|0|1
# description = |||

# [DATA]
id|lat|lon|note
1|46.5|7.9|ok
2|NA|8.1|
`
	if got := buf.String(); got != want {
		t.Fatalf("document mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

// TestWriteReadRoundTrip verifies that ReadDocument reproduces the header,
// every data cell and the metadata of a written document.
func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"station", "day", "temp"},
		Rows: [][]string{
			{"GRIMSEL", "2021-01-01", "-3.5"},
			{"GRIMSEL", "2021-01-02", "NA"},
			{"JUNGFRAU", "2021-01-02", "0.0"},
		},
	}
	doc, _ := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "|", AppProfile: "envidat", now: fixedClock})

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	got, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}

	if !reflect.DeepEqual(got.Header, doc.Header) {
		t.Fatalf("header = %v, want %v", got.Header, doc.Header)
	}
	if !reflect.DeepEqual(got.Rows, doc.Rows) {
		t.Fatalf("rows = %v, want %v", got.Rows, doc.Rows)
	}
	if got.Meta.FieldDelim != "|" || got.Meta.Rows != 3 || got.Meta.Columns != 3 {
		t.Fatalf("meta = %+v", got.Meta)
	}
	if got.Meta.AppProfile != "envidat" {
		t.Fatalf("application_profile = %q", got.Meta.AppProfile)
	}
	if got.Meta.Nodata != "NA" || !got.Meta.NodataSet {
		t.Fatalf("nodata = %q (set=%v)", got.Meta.Nodata, got.Meta.NodataSet)
	}
	if !got.Meta.Created.Equal(fixedClock()) {
		t.Fatalf("creation_date = %v", got.Meta.Created)
	}

	if len(got.Profiles) != 3 {
		t.Fatalf("profiles = %d, want 3", len(got.Profiles))
	}
	for i, p := range got.Profiles {
		if p.Name != doc.Profiles[i].Name || p.Type != doc.Profiles[i].Type {
			t.Fatalf("profile %d = %+v, want name/type of %+v", i, p, doc.Profiles[i])
		}
		if p.MissingCount != doc.Profiles[i].MissingCount {
			t.Fatalf("profile %d missing = %d, want %d", i, p.MissingCount, doc.Profiles[i].MissingCount)
		}
	}
	// Extrema come back as the rendered strings from the fields block.
	if got.Profiles[2].Min != "-3.5" || got.Profiles[2].Max != "0" {
		t.Fatalf("temp extrema = %v / %v", got.Profiles[2].Min, got.Profiles[2].Max)
	}
}

// TestWriteReadRoundTripTabDelimiter exercises the one delimiter that is
// easy to lose in metadata parsing: a literal tab after "field_delimiter = ".
func TestWriteReadRoundTripTabDelimiter(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"a", "b"},
		Rows:   [][]string{{"x", "1"}, {"y", "2"}},
	}
	doc, _ := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "\t", now: fixedClock})

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}

	got, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if got.Meta.FieldDelim != "\t" {
		t.Fatalf("field delimiter = %q, want tab", got.Meta.FieldDelim)
	}
	if !reflect.DeepEqual(got.Rows, doc.Rows) {
		t.Fatalf("rows = %v, want %v", got.Rows, doc.Rows)
	}
}

// TestWriteDocumentQuotesCells verifies CSV quoting for cells that embed the
// delimiter or a newline, and that such cells survive a round trip.
func TestWriteDocumentQuotesCells(t *testing.T) {
	t.Parallel()

	tbl := table.Table{
		Header: []string{"k", "v"},
		Rows:   [][]string{{"pipe", "a|b"}, {"line", "a\nb"}},
	}
	doc, _ := Build(tbl, missing.DefaultSet(), Options{OutputDelim: "|", now: fixedClock})

	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if !strings.Contains(buf.String(), `"a|b"`) {
		t.Fatalf("embedded delimiter not quoted:\n%s", buf.String())
	}

	got, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if !reflect.DeepEqual(got.Rows, doc.Rows) {
		t.Fatalf("rows = %v, want %v", got.Rows, doc.Rows)
	}
}

// TestReadDocumentRejectsNonICSV verifies the firstline gate.
func TestReadDocumentRejectsNonICSV(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "station,day\nGRIMSEL,2021-01-01\n", "# iCSV 2.0 UTF-8\n"} {
		if _, err := ReadDocument(strings.NewReader(in)); !errors.Is(err, ErrNotICSV) {
			t.Fatalf("input %q: err = %v, want ErrNotICSV", in, err)
		}
	}
}

// TestReadDocumentCRLF verifies that Windows line endings are tolerated.
func TestReadDocumentCRLF(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"# iCSV 1.0 UTF-8",
		"# [METADATA]",
		"# field_delimiter = |",
		"# rows = 1",
		"# columns = 2",
		"",
		"# [FIELDS]",
		"# fields = a|b",
		"# types = integer|string",
		"",
		"# [DATA]",
		"a|b",
		"1|x",
		"",
	}, "\r\n")

	doc, err := ReadDocument(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if !reflect.DeepEqual(doc.Header, []string{"a", "b"}) {
		t.Fatalf("header = %v", doc.Header)
	}
	if !reflect.DeepEqual(doc.Rows, [][]string{{"1", "x"}}) {
		t.Fatalf("rows = %v", doc.Rows)
	}
	if doc.Profiles[0].Type != infer.Integer || doc.Profiles[1].Type != infer.String {
		t.Fatalf("profiles = %+v", doc.Profiles)
	}
}

// TestCutKeyValue verifies the metadata line splitter: only the first "="
// splits, exactly one space after it is consumed, and empty values survive.
func TestCutKeyValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		key  string
		val  string
		ok   bool
	}{
		{name: "plain", line: "# rows = 10", key: "rows", val: "10", ok: true},
		{name: "empty value", line: "# nodata = ", key: "nodata", val: "", ok: true},
		{name: "tab value", line: "# field_delimiter = \t", key: "field_delimiter", val: "\t", ok: true},
		{name: "value containing equals", line: "# geometry = column:a=b", key: "geometry", val: "column:a=b", ok: true},
		{name: "section header", line: "# [METADATA]", ok: false},
		{name: "not a comment", line: "rows = 10", ok: false},
		{name: "missing key", line: "# = 10", ok: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			key, val, ok := cutKeyValue(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if key != tt.key || val != tt.val {
				t.Fatalf("got (%q, %q), want (%q, %q)", key, val, tt.key, tt.val)
			}
		})
	}
}
