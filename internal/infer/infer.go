// Package infer classifies tabular columns into {integer, number, datetime,
// string} and computes per-column statistics.
//
// Classification is strict and all-or-nothing over a fixed precedence ladder
// (integer > number > datetime > string): a column gets a type only if every
// non-missing value conforms, and a single non-conforming value demotes the
// whole column to the next tier. There is no majority vote and no
// partial/nullable typing — downstream validation depends on this exact rule.
package infer

import (
	"regexp"
	"strings"
	"time"

	"icsv/internal/missing"
)

// Type is an inferred column type.
type Type string

const (
	Integer  Type = "integer"
	Number   Type = "number"
	Datetime Type = "datetime"
	String   Type = "string"
)

// Shape predicates. A bare sign, a leading "+", exponent notation and
// bare or trailing decimal points are all rejected: a value needs at least
// one digit on each side of any decimal point.
var (
	integerShapeRE = regexp.MustCompile(`^-?[0-9]+$`)
	decimalShapeRE = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

func integerShaped(v string) bool { return integerShapeRE.MatchString(v) }

func numberShaped(v string) bool {
	return integerShapeRE.MatchString(v) || decimalShapeRE.MatchString(v)
}

// isoLayouts are the primary ISO-8601 parse attempts, tried first and in
// order. Longer layouts come before their prefixes so trailing input is
// never silently ignored.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// fallbackLayouts are tried in order when no ISO layout matches. Order
// matters: day-first forms win over month-first for ambiguous values, and
// any one column may mix layouts freely.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02.01.2006",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"20060102T150405",
	"2006-01-02 15:04:05Z07:00",
}

// parseDatetime tries the ISO layouts and then the fallback list. The
// matched layout is returned so callers can tell whether the value carried
// a UTC offset. Values without a single digit short-circuit to failure.
func parseDatetime(v string) (time.Time, string, bool) {
	v = strings.TrimSpace(v)
	if v == "" || !strings.ContainsAny(v, "0123456789") {
		return time.Time{}, "", false
	}
	for _, lay := range isoLayouts {
		if t, err := time.Parse(lay, v); err == nil {
			return t, lay, true
		}
	}
	for _, lay := range fallbackLayouts {
		if t, err := time.Parse(lay, v); err == nil {
			return t, lay, true
		}
	}
	return time.Time{}, "", false
}

func layoutHasZone(layout string) bool {
	return strings.Contains(layout, "Z07:00")
}

// Classify prunes one column's raw cells and classifies the survivors.
// Empty and all-missing columns carry no evidence and classify as string.
func Classify(set missing.Set, values []string) Type {
	return classifyPruned(set.Prune(values))
}

func classifyPruned(pruned []string) Type {
	if len(pruned) == 0 {
		return String
	}

	allInt := true
	allNum := true
	allDT := true

	for _, v := range pruned {
		if allInt && !integerShaped(v) {
			allInt = false
		}
		if allNum && !numberShaped(v) {
			allNum = false
		}
		if allDT {
			if _, _, ok := parseDatetime(v); !ok {
				allDT = false
			}
		}
	}

	switch {
	case allInt:
		return Integer
	case allNum:
		return Number
	case allDT:
		return Datetime
	default:
		return String
	}
}

// ColumnResult is the complete inference outcome for one column.
//
// Min and Max are typed: int64 for integer columns, float64 for number
// columns, an ISO-8601 string for datetime columns, nil when absent.
type ColumnResult struct {
	Type         Type
	Min          any
	Max          any
	Required     bool
	MissingCount int
}

// ProfileColumn runs classification and statistics over one column's raw
// cells. It never fails: ambiguity demotes the type, and statistics trouble
// degrades to absent min/max.
func ProfileColumn(set missing.Set, values []string) ColumnResult {
	pruned := set.Prune(values)
	typ := classifyPruned(pruned)
	st := ComputeStats(pruned, typ, len(values))
	return ColumnResult{
		Type:         typ,
		Min:          st.Min,
		Max:          st.Max,
		Required:     st.Required,
		MissingCount: len(values) - len(pruned),
	}
}
