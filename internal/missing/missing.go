// Package missing defines the canonical recognizer for "no data" cells and
// the selection of the table-wide nodata placeholder.
//
// There is exactly one definition of "missing" in the whole pipeline: a cell
// is missing iff its whitespace-trimmed value is empty or an exact,
// case-sensitive member of the token set. Type inference, statistics and the
// nodata selector all go through this package; per-column overrides do not
// exist.
package missing

import "strings"

// defaultTokens is the canonical placeholder list. Order matters: it is the
// order used whenever the set is serialized (e.g. the schema document's
// missingValues list), so runs stay byte-identical across invocations.
var defaultTokens = []string{
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
	"-999.000000",
}

// Set is an immutable missing-value token set.
//
// The zero value is not usable; construct via DefaultSet.
type Set struct {
	tokens  []string
	members map[string]struct{}
}

// DefaultSet returns the canonical missing-value set.
func DefaultSet() Set {
	members := make(map[string]struct{}, len(defaultTokens))
	for _, tok := range defaultTokens {
		members[tok] = struct{}{}
	}
	return Set{tokens: defaultTokens, members: members}
}

// Tokens returns the set in canonical order. The returned slice is a copy.
func (s Set) Tokens() []string {
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Contains reports exact, case-sensitive membership of the raw cell value.
// No trimming is applied; the nodata tally counts cells as they appear.
func (s Set) Contains(cell string) bool {
	_, ok := s.members[cell]
	return ok
}

// IsMissing reports whether a cell counts as missing: trimmed-empty or a
// member of the set after trimming.
func (s Set) IsMissing(cell string) bool {
	t := strings.TrimSpace(cell)
	if t == "" {
		return true
	}
	_, ok := s.members[t]
	return ok
}

// Prune returns the trimmed non-missing values of a column, in input order.
//
// Downstream classification and statistics operate on the returned values,
// so trimming happens exactly once, here.
func (s Set) Prune(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		t := strings.TrimSpace(v)
		if t == "" {
			continue
		}
		if _, ok := s.members[t]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Count returns the number of missing cells in a column. For every column,
// Count(values) + len(Prune(values)) == len(values).
func (s Set) Count(values []string) int {
	n := 0
	for _, v := range values {
		if s.IsMissing(v) {
			n++
		}
	}
	return n
}

// SelectNodata chooses the single table-wide nodata token by scanning every
// cell of every row and tallying exact matches against the set. The token
// with the highest count wins; ties go to the token seen first during the
// scan. If nothing matches anywhere, the empty string is selected.
func (s Set) SelectNodata(rows [][]string) string {
	counts := make(map[string]int)
	var order []string

	for _, row := range rows {
		for _, cell := range row {
			if !s.Contains(cell) {
				continue
			}
			if _, seen := counts[cell]; !seen {
				order = append(order, cell)
			}
			counts[cell]++
		}
	}

	if len(order) == 0 {
		return ""
	}

	best := order[0]
	for _, tok := range order[1:] {
		if counts[tok] > counts[best] {
			best = tok
		}
	}
	return best
}
