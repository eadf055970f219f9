package icsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"icsv/internal/infer"
)

// ErrNotICSV marks input that does not start with the iCSV firstline.
var ErrNotICSV = errors.New("not an iCSV document")

// ReadDocument parses a document produced by WriteDocument.
//
// The returned profiles carry names, types, the stringified extrema from the
// [FIELDS] block (Min/Max hold strings here, nil when the field was empty),
// missing counts and descriptions. Ingestion and round-trip checks both go
// through this.
func ReadDocument(r io.Reader) (Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read icsv: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(raw), "\r\n", "\n"), "\n")
	if len(lines) == 0 || lines[0] != Firstline {
		return Document{}, ErrNotICSV
	}

	var doc Document
	fieldsRaw := make(map[string]string)
	dataStart := -1

	for i := 1; i < len(lines); i++ {
		line := lines[i]
		switch line {
		case "# [METADATA]", "# [FIELDS]", "":
			continue
		case "# [DATA]":
			dataStart = i + 1
		}
		if dataStart >= 0 {
			break
		}
		key, val, ok := cutKeyValue(line)
		if !ok {
			continue
		}
		switch key {
		case "fields", "types", "min", "max", "missing_count", "description":
			fieldsRaw[key] = val
		default:
			applyMetadata(&doc.Meta, key, val)
		}
	}

	if doc.Meta.FieldDelim == "" {
		return Document{}, fmt.Errorf("icsv: missing field_delimiter in metadata")
	}
	doc.Profiles = profilesFromFields(fieldsRaw, doc.Meta.FieldDelim)

	if dataStart < 0 {
		return Document{}, fmt.Errorf("icsv: missing [DATA] section")
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines[dataStart:], "\n")))
	cr.Comma = delimRune(doc.Meta.FieldDelim)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("icsv: read data header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	doc.Header = header

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Document{}, fmt.Errorf("icsv: read data row: %w", err)
		}
		doc.Rows = append(doc.Rows, rec)
	}

	return doc, nil
}

// cutKeyValue splits a "# key = value" comment line. Exactly one space after
// the "=" is consumed so delimiters like a literal tab survive; an absent
// value parses as the empty string.
func cutKeyValue(line string) (key, val string, ok bool) {
	body, found := strings.CutPrefix(line, "# ")
	if !found {
		return "", "", false
	}
	k, v, found := strings.Cut(body, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(k)
	val = strings.TrimPrefix(v, " ")
	if key == "" {
		return "", "", false
	}
	return key, val, true
}

func applyMetadata(m *Metadata, key, val string) {
	switch key {
	case "application_profile":
		m.AppProfile = val
	case "field_delimiter":
		m.FieldDelim = val
	case "rows":
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			m.Rows = n
		}
	case "columns":
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			m.Columns = n
		}
	case "creation_date":
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(val)); err == nil {
			m.Created = t
		}
	case "nodata":
		m.Nodata = val
		m.NodataSet = true
	case "geometry":
		m.Geometry = val
	case "srid":
		m.SRID = val
	}
}

// profilesFromFields reconstructs per-column profiles from the raw [FIELDS]
// lines. Alignment follows the fields line; shorter companion lines leave
// their positions zero-valued.
func profilesFromFields(raw map[string]string, delim string) []ColumnProfile {
	namesLine, ok := raw["fields"]
	if !ok {
		return nil
	}

	names := strings.Split(namesLine, delim)
	types := splitAligned(raw["types"], delim, len(names))
	mins := splitAligned(raw["min"], delim, len(names))
	maxs := splitAligned(raw["max"], delim, len(names))
	counts := splitAligned(raw["missing_count"], delim, len(names))
	descs := splitAligned(raw["description"], delim, len(names))

	profiles := make([]ColumnProfile, len(names))
	for i := range names {
		p := ColumnProfile{
			Name:        names[i],
			Type:        typeFromString(types[i]),
			Description: descs[i],
		}
		if mins[i] != "" {
			p.Min = mins[i]
		}
		if maxs[i] != "" {
			p.Max = maxs[i]
		}
		if n, err := strconv.Atoi(counts[i]); err == nil {
			p.MissingCount = n
		}
		profiles[i] = p
	}
	return profiles
}

// typeFromString maps a serialized type label back to an inferred type;
// unknown labels fall back to string.
func typeFromString(s string) infer.Type {
	switch t := infer.Type(strings.TrimSpace(s)); t {
	case infer.Integer, infer.Number, infer.Datetime, infer.String:
		return t
	default:
		return infer.String
	}
}

func splitAligned(line, delim string, want int) []string {
	out := make([]string, want)
	if line == "" {
		return out
	}
	parts := strings.Split(line, delim)
	for i := 0; i < want && i < len(parts); i++ {
		out[i] = parts[i]
	}
	return out
}
