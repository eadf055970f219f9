package icsv

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Firstline identifies an iCSV 1.0 document.
const Firstline = "# iCSV 1.0 UTF-8"

// ErrOutputWrite marks boundary failures while serializing either artifact.
// Callers can match it with errors.Is; the underlying cause stays in the
// chain.
var ErrOutputWrite = errors.New("output write failure")

// WriteDocument serializes the document: firstline, [METADATA] block,
// [FIELDS] block, then the [DATA] block as a delimited table with standard
// CSV quoting for embedded delimiters and newlines.
func WriteDocument(w io.Writer, doc Document) error {
	bw := bufio.NewWriter(w)

	lines := make([]string, 0, 16+len(doc.Rows))
	lines = append(lines, Firstline, "# [METADATA]")
	for _, l := range doc.Meta.Lines() {
		lines = append(lines, "# "+l)
	}
	lines = append(lines, "", "# [FIELDS]")
	for _, l := range fieldsLines(doc.Profiles, doc.Meta.FieldDelim) {
		lines = append(lines, "# "+l)
	}
	lines = append(lines, "", "# [DATA]")

	for _, l := range lines {
		if _, err := bw.WriteString(l + "\n"); err != nil {
			return wrapWrite(err)
		}
	}

	cw := csv.NewWriter(bw)
	cw.Comma = delimRune(doc.Meta.FieldDelim)
	if err := cw.Write(doc.Header); err != nil {
		return wrapWrite(err)
	}
	for _, row := range doc.Rows {
		if err := cw.Write(row); err != nil {
			return wrapWrite(err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return wrapWrite(err)
	}
	if err := bw.Flush(); err != nil {
		return wrapWrite(err)
	}
	return nil
}

func wrapWrite(err error) error {
	return fmt.Errorf("%w: %w", ErrOutputWrite, err)
}

// delimRune returns the document delimiter as a rune; delimiters are always
// single characters from the sniffable candidate set.
func delimRune(delim string) rune {
	for _, r := range delim {
		return r
	}
	return '|'
}
