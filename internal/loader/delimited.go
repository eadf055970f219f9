package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"icsv/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Delimited loads delimited-text files (CSV and friends).
//
// Parsing is deliberately forgiving: lazy quotes, no fixed field count (the
// engine normalizes ragged rows), and the first record becomes the header
// with its cells trimmed.
type Delimited struct {
	// Delimiter forces the field delimiter; empty means sniff.
	Delimiter string

	// Encoding names the source charset; empty means UTF-8.
	Encoding string

	// used is the delimiter the most recent Load resolved.
	used string
}

// InputDelimiter reports the delimiter Load used or would use for the given
// decoded text: the forced one when set, otherwise the sniffed one.
func (l *Delimited) InputDelimiter(text string) string {
	if l.Delimiter != "" {
		return l.Delimiter
	}
	return Sniff(text)
}

// UsedDelimiter reports the delimiter the most recent Load resolved (forced
// or sniffed), so callers can derive the output delimiter from it. Empty
// before the first Load.
func (l *Delimited) UsedDelimiter() string { return l.used }

func (l *Delimited) Load(path string) (table.Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("%w: %w", ErrInputAccess, err)
	}

	text, err := decodeText(raw, l.Encoding)
	if err != nil {
		return table.Table{}, err
	}

	delim := l.InputDelimiter(text)
	l.used = delim

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = firstRune(delim, ',')
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("parse delimited input: %w", err)
	}
	if len(records) == 0 {
		return table.Table{}, fmt.Errorf("%w: empty input, no header row", ErrInputAccess)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	tbl := table.Table{Header: header, Rows: records[1:]}
	tbl.Normalize()
	return tbl, nil
}

// decodeText converts raw input bytes to a UTF-8 string. The UTF-8 path
// only strips a BOM; every other charset goes through an x/text decoder.
func decodeText(raw []byte, name string) (string, error) {
	enc, err := encodingByName(name)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(bytes.TrimPrefix(raw, utf8BOM)), nil
	}

	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %w", ErrInputAccess, name, err)
	}
	return string(out), nil
}

// encodingByName resolves a charset label. A nil encoding with nil error
// means the input is already UTF-8.
func encodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrUnsupportedFormat, name)
	}
}

// firstRune returns the first rune of s, or fallback when s is empty.
// Delimiters are single characters from the sniffable set.
func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}
