// Package metrics provides a minimal metrics facade for the conversion
// pipeline.
//
// Commands register a concrete backend at startup (see internal/metrics/
// datadog); until then a nop backend swallows all calls, so library code can
// record unconditionally without caring whether metrics are enabled.
package metrics

import (
	"sync"
	"time"
)

// Metric names understood by backends. Backends map these to their own
// naming scheme.
const (
	// StepTotal counts pipeline step executions. Labels: step, status.
	StepTotal = "icsv_step_total"

	// RowsTotal counts data rows processed. Labels: kind (converted, ingested).
	RowsTotal = "icsv_rows_total"

	// ColumnsTotal counts columns profiled. No labels.
	ColumnsTotal = "icsv_columns_total"

	// ColumnTypesTotal counts columns by inferred type. Labels: type.
	ColumnTypesTotal = "icsv_column_types_total"

	// StepDurationSeconds observes step wall-clock durations. Labels: step, status.
	StepDurationSeconds = "icsv_step_duration_seconds"
)

// Labels are metric dimensions, e.g. {"step": "infer", "status": "ok"}.
type Labels map[string]string

// Backend is implemented by metric sinks.
//
// Implementations must be safe for concurrent use. Flush submits anything
// buffered; Close stops background work and flushes one final time.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
	Close() error
}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide metrics backend.
// Passing nil restores the nop backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	defer mu.Unlock()
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush submits buffered metrics through the installed backend.
func Flush() error {
	return current().Flush()
}

// RecordStep records one execution of a pipeline step with its outcome and
// duration. Status is typically "ok" or "error".
func RecordStep(step, status string, d time.Duration) {
	b := current()
	labels := Labels{"step": step, "status": status}
	b.IncCounter(StepTotal, 1, labels)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), labels)
}

// RecordRows records n data rows of the given kind ("converted", "ingested").
// Non-positive counts are ignored.
func RecordRows(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"kind": kind})
}

// RecordColumns records the column count and per-type breakdown of one
// inferred document. types holds the inferred type name of each column.
func RecordColumns(types []string) {
	if len(types) == 0 {
		return
	}
	b := current()
	b.IncCounter(ColumnsTotal, float64(len(types)), nil)
	for _, typ := range types {
		b.IncCounter(ColumnTypesTotal, 1, Labels{"type": typ})
	}
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }
func (nopBackend) Close() error                             { return nil }
