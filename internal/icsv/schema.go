package icsv

import (
	"encoding/json"
	"fmt"
	"io"

	"icsv/internal/missing"
)

// Constraints are the machine-checkable bounds recorded per field. Minimum
// and Maximum hold typed values (int64, float64 or ISO-8601 string), so the
// schema document validates against real values rather than their rendered
// forms.
type Constraints struct {
	Minimum  any  `json:"minimum,omitempty"`
	Maximum  any  `json:"maximum,omitempty"`
	Required bool `json:"required,omitempty"`
}

// Field is one schema descriptor, positionally aligned with the header.
type Field struct {
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Format      string       `json:"format,omitempty"`
	Description string       `json:"description,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// Schema is the structured validation document written beside the iCSV
// file. MissingValues carries the full token set in canonical order.
type Schema struct {
	Fields        []Field  `json:"fields"`
	MissingValues []string `json:"missingValues"`
}

// BuildSchema derives the schema document from the completed profiles.
// Empty descriptions are omitted; a constraints object appears only when at
// least one of minimum, maximum or required is present.
func BuildSchema(profiles []ColumnProfile, set missing.Set) Schema {
	fields := make([]Field, len(profiles))
	for i, p := range profiles {
		f := Field{Name: p.Name, Type: string(p.Type), Description: p.Description}

		var c Constraints
		has := false
		if p.Min != nil {
			c.Minimum = p.Min
			has = true
		}
		if p.Max != nil {
			c.Maximum = p.Max
			has = true
		}
		if p.Required {
			c.Required = true
			has = true
		}
		if has {
			f.Constraints = &c
		}
		fields[i] = f
	}
	return Schema{Fields: fields, MissingValues: set.Tokens()}
}

// WriteSchema serializes the schema as indented JSON.
func WriteSchema(w io.Writer, s Schema) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	return nil
}

// ReadSchema parses a schema document produced by WriteSchema. JSON numbers
// decode as float64 regardless of the original typed value.
func ReadSchema(r io.Reader) (Schema, error) {
	var s Schema
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Schema{}, fmt.Errorf("decode schema: %w", err)
	}
	return s, nil
}
