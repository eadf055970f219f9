// Package storage provides the backend registry and shared specs for
// ingesting converted tables into a database.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Config selects and configures a storage backend.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the backend-agnostic destination for converted tables.
//
// The interface is intentionally minimal: ingestion creates one table per
// document and bulk-inserts its rows. Each backend implements these
// semantics in its own dialect (identifier quoting, placeholder style,
// type names).
type Repository interface {
	// Close releases backend resources (connections, pools).
	// Treat Close as "call once" at process shutdown.
	Close()

	// EnsureTable creates the destination table when it does not exist.
	EnsureTable(ctx context.Context, spec TableSpec) error

	// InsertRows bulk-inserts rows and reports the inserted count.
	// Every row must align with columns; nil values insert SQL NULL.
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// When to use:
//   - Call Register from an init() function in a backend package.
//   - The kind string becomes the lookup key used by New.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered. Failing fast here avoids ambiguous
//     backend selection later.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Concurrency:
//   - Safe for concurrent use with Register. New takes a read lock while
//     selecting the factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
