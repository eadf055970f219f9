// Package icsv assembles, writes and reads iCSV 1.0 documents: a delimited
// table prefixed by comment blocks carrying table metadata and per-column
// field statistics, paired with a structured schema document for validation.
package icsv

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"icsv/internal/geometry"
	"icsv/internal/infer"
	"icsv/internal/logging"
	"icsv/internal/missing"
	"icsv/internal/table"
)

// Version is the iCSV format version this package produces.
const Version = "1.0"

// generatorTag identifies the producing tool in the metadata block.
const generatorTag = "make_icsv/1.0.0"

// ColumnProfile describes one column after inference, positionally aligned
// with the table header. Min and Max hold typed values (int64, float64 or
// ISO-8601 string) and are nil when absent.
type ColumnProfile struct {
	Name         string
	Type         infer.Type
	Min          any
	Max          any
	Required     bool
	MissingCount int
	Description  string
}

// Metadata carries the table-wide facts recorded in the [METADATA] block.
type Metadata struct {
	AppProfile string
	FieldDelim string
	Rows       int
	Columns    int
	Created    time.Time
	Nodata     string
	// NodataSet forces emission of the nodata key even when the token is
	// empty (an explicit caller override is always recorded).
	NodataSet bool
	Geometry  string
	SRID      string
}

// Lines renders the metadata block in its fixed key order. Optional keys are
// omitted entirely when absent, never emitted empty; nodata appears when the
// token is non-empty or was explicitly overridden.
func (m Metadata) Lines() []string {
	lines := make([]string, 0, 10)
	lines = append(lines, "iCSV_version = "+Version)
	if m.AppProfile != "" {
		lines = append(lines, "application_profile = "+m.AppProfile)
	}
	lines = append(lines, "field_delimiter = "+m.FieldDelim)
	lines = append(lines, fmt.Sprintf("rows = %d", m.Rows))
	lines = append(lines, fmt.Sprintf("columns = %d", m.Columns))
	lines = append(lines, "creation_date = "+m.Created.UTC().Format(time.RFC3339))
	if m.Nodata != "" || m.NodataSet {
		lines = append(lines, "nodata = "+m.Nodata)
	}
	if m.Geometry != "" {
		lines = append(lines, "geometry = "+m.Geometry)
	}
	if m.SRID != "" {
		lines = append(lines, "srid = "+m.SRID)
	}
	lines = append(lines, "generator = "+generatorTag)
	return lines
}

// Document is one assembled iCSV document, ready for WriteDocument.
type Document struct {
	Meta     Metadata
	Profiles []ColumnProfile
	Header   []string
	Rows     [][]string
}

// Options configures one Build run. Only the table-wide overrides live
// here; the missing-value set is an explicit Build argument because every
// component shares it.
type Options struct {
	// OutputDelim is the field delimiter of the produced document. Empty
	// defaults to "|" (the substitute for comma-delimited inputs).
	OutputDelim string

	// Nodata overrides the table-wide placeholder verbatim when non-nil,
	// bypassing the scan entirely.
	Nodata *string

	// AppProfile is free text embedded in the metadata block when non-empty.
	AppProfile string

	// Logger receives debug-level progress (the selected nodata token,
	// per-column type decisions). Nil discards.
	Logger *slog.Logger

	// now is a test seam for the creation timestamp; production leaves it
	// nil for time.Now.
	now func() time.Time
}

// Build runs the inference pipeline over a loaded table and assembles the
// iCSV document plus its schema. It never fails: classification ambiguity
// demotes types, statistics trouble degrades to absent extrema, and a
// zero-row table degrades to an all-string, no-constraint schema.
func Build(tbl table.Table, set missing.Set, opts Options) (Document, Schema) {
	logger := logging.OrDiscard(opts.Logger)

	tbl.Normalize()

	delim := opts.OutputDelim
	if delim == "" {
		delim = "|"
	}

	nodataSet := opts.Nodata != nil
	var nodata string
	if nodataSet {
		nodata = *opts.Nodata
	} else {
		nodata = set.SelectNodata(tbl.Rows)
	}
	logger.Debug("nodata selected", "token", nodata, "overridden", nodataSet)

	profiles := make([]ColumnProfile, len(tbl.Header))
	for i, name := range tbl.Header {
		res := infer.ProfileColumn(set, tbl.Column(i))
		profiles[i] = ColumnProfile{
			Name:         name,
			Type:         res.Type,
			Min:          res.Min,
			Max:          res.Max,
			Required:     res.Required,
			MissingCount: res.MissingCount,
		}
		logger.Debug("column profiled",
			"column", name,
			"type", string(res.Type),
			"missing", res.MissingCount,
		)
	}

	meta := Metadata{
		AppProfile: opts.AppProfile,
		FieldDelim: delim,
		Rows:       tbl.RowCount(),
		Columns:    tbl.ColumnCount(),
		Created:    buildTime(opts),
		Nodata:     nodata,
		NodataSet:  nodataSet,
	}
	if hint, ok := geometry.Detect(tbl.Header); ok {
		meta.Geometry = hint.Pointer()
		meta.SRID = hint.SRID
	}

	doc := Document{Meta: meta, Profiles: profiles, Header: tbl.Header, Rows: tbl.Rows}
	return doc, BuildSchema(profiles, set)
}

func buildTime(opts Options) time.Time {
	if opts.now != nil {
		return opts.now()
	}
	return time.Now()
}

// fieldsLines renders the six aligned [FIELDS] rows. Values are joined with
// the document delimiter and are not quoted; metadata sections are comments,
// not data.
func fieldsLines(profiles []ColumnProfile, delim string) []string {
	join := func(vals []string) string { return strings.Join(vals, delim) }

	names := make([]string, len(profiles))
	types := make([]string, len(profiles))
	mins := make([]string, len(profiles))
	maxs := make([]string, len(profiles))
	miss := make([]string, len(profiles))
	descs := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
		types[i] = string(p.Type)
		mins[i] = statString(p.Min)
		maxs[i] = statString(p.Max)
		miss[i] = strconv.Itoa(p.MissingCount)
		descs[i] = p.Description
	}

	return []string{
		"fields = " + join(names),
		"types = " + join(types),
		"min = " + join(mins),
		"max = " + join(maxs),
		"missing_count = " + join(miss),
		"description = " + join(descs),
	}
}

// statString renders a typed extremum for the fields block; absent values
// render empty.
func statString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
