// Package storage contains the storage-agnostic repository contract, a
// factory registry for concrete backends, and a generic batched loader.
//
// The pipeline talks only to Repository; Postgres and SQLite implementations
// live in subpackages and register themselves at init time (blank-import
// storage/all to enable them).
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Repository is the contract every storage backend implements. All table and
// column identifiers come from validated, trusted configuration; backends
// still quote them for their dialect.
type Repository interface {
	// EnsureTable creates the target table if absent, declaring every
	// canonical column as text. Idempotent.
	EnsureTable(ctx context.Context, table string, columns []string) error

	// Truncate unconditionally removes all rows from the table. Idempotent.
	Truncate(ctx context.Context, table string) error

	// LoadRows drains canonical rows from the channel and inserts them in
	// batches of batchSize inside a single transaction. On any error the
	// whole transaction rolls back: a file is either fully loaded or not
	// loaded at all. Returns the number of rows committed.
	LoadRows(ctx context.Context, table string, columns []string, rows <-chan []any, batchSize int) (int64, error)

	// CoerceDateColumn promotes a text column to the backend's calendar-date
	// type, mapping empty string and NULL to NULL. Skips without error when
	// the column already has the date type.
	CoerceDateColumn(ctx context.Context, table, column string) error

	// Close releases the underlying connections.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // "postgres" or "sqlite"
	DSN  string
}

// Factory opens a Repository for a Config. Backends register one per kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a storage kind. Called from
// backend packages' init functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind using the registered factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind=%q", cfg.Kind)
	}
	return f(ctx, cfg)
}
