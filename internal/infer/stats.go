package infer

import (
	"strconv"
	"time"
)

// Stats holds the per-column statistics computed after classification.
type Stats struct {
	Min      any
	Max      any
	Required bool
}

// ComputeStats computes min/max/required for a column's pruned values.
//
// rowCount is the column's total cell count before pruning; Required is true
// iff nothing was pruned away and the table has at least one row. Parse
// failures (e.g. integers beyond int64 range) downgrade to absent statistics
// rather than failing the run.
func ComputeStats(pruned []string, typ Type, rowCount int) Stats {
	st := Stats{Required: len(pruned) == rowCount && rowCount > 0}

	switch typ {
	case Integer:
		st.Min, st.Max = integerMinMax(pruned)
	case Number:
		st.Min, st.Max = numberMinMax(pruned)
	case Datetime:
		st.Min, st.Max = datetimeMinMax(pruned)
	}
	return st
}

func integerMinMax(pruned []string) (any, any) {
	if len(pruned) == 0 {
		return nil, nil
	}
	var mn, mx int64
	for i, v := range pruned {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, nil
		}
		if i == 0 || n < mn {
			mn = n
		}
		if i == 0 || n > mx {
			mx = n
		}
	}
	return mn, mx
}

func numberMinMax(pruned []string) (any, any) {
	if len(pruned) == 0 {
		return nil, nil
	}
	var mn, mx float64
	for i, v := range pruned {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, nil
		}
		if i == 0 || f < mn {
			mn = f
		}
		if i == 0 || f > mx {
			mx = f
		}
	}
	return mn, mx
}

// datetimeMinMax parses every value with the same layout strategy as
// classification and returns the earliest and latest instants as ISO-8601
// strings. Naive values compare as UTC instants; values that carried an
// offset render with it. Unparseable values are skipped; if nothing parses,
// both statistics are absent.
func datetimeMinMax(pruned []string) (any, any) {
	type parsed struct {
		t       time.Time
		hasZone bool
	}

	var all []parsed
	for _, v := range pruned {
		t, layout, ok := parseDatetime(v)
		if !ok {
			continue
		}
		all = append(all, parsed{t: t, hasZone: layoutHasZone(layout)})
	}
	if len(all) == 0 {
		return nil, nil
	}

	mn, mx := all[0], all[0]
	for _, p := range all[1:] {
		if p.t.Before(mn.t) {
			mn = p
		}
		if p.t.After(mx.t) {
			mx = p
		}
	}
	return renderDatetime(mn.t, mn.hasZone), renderDatetime(mx.t, mx.hasZone)
}

// renderDatetime formats at seconds precision, keeping the offset only when
// the source value carried one.
func renderDatetime(t time.Time, hasZone bool) string {
	if hasZone {
		return t.Format("2006-01-02T15:04:05Z07:00")
	}
	return t.Format("2006-01-02T15:04:05")
}
