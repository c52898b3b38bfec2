// Package sqlite implements the storage.Repository contract on database/sql
// with the modernc driver. It backs small single-node deployments and the
// end-to-end tests; loads run as batched multi-row INSERTs in a transaction.
//
// SQLite types dynamically, so the date-promotion pass is a no-op here: date
// columns stay as ISO text, which sorts and compares correctly.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adraguidev/dashboardproject-sub001/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// maxVars is SQLite's historical bind-variable ceiling; batch sizes are
// clamped so a multi-row INSERT never exceeds it.
const maxVars = 999

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens the database at dsn (e.g. "ingesta.db" or ":memory:").
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Single writer; also keeps :memory: databases on one connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// Close closes the database.
func (r *Repository) Close() { r.db.Close() }

// DB exposes the underlying handle for test verification queries.
func (r *Repository) DB() *sql.DB { return r.db }

// EnsureTable creates the table if absent with every column as TEXT.
func (r *Repository) EnsureTable(ctx context.Context, table string, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", table, err)
	}
	return nil
}

// Truncate removes all rows. SQLite has no TRUNCATE; DELETE without a WHERE
// takes the fast path.
func (r *Repository) Truncate(ctx context.Context, table string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return fmt.Errorf("sqlite: truncate %s: %w", table, err)
	}
	return nil
}

// LoadRows inserts every row from the channel inside one transaction,
// flushing multi-row INSERTs of at most batchSize rows (clamped by the bind
// variable ceiling). Any failure rolls back the whole file.
func (r *Repository) LoadRows(ctx context.Context, table string, columns []string, rows <-chan []any, batchSize int) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: load %s: no columns", table)
	}
	if max := maxVars / len(columns); batchSize > max {
		batchSize = max
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	prefix := insertPrefix(table, columns)
	total, err := storage.LoadBatches(ctx, rows, batchSize, func(ctx context.Context, batch [][]any) (int64, error) {
		stmt, args := multiRowInsert(prefix, len(columns), batch)
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, fmt.Errorf("sqlite: load %s: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit %s: %w", table, err)
	}
	return total, nil
}

// CoerceDateColumn is a no-op: SQLite stores the ISO text produced by the
// transformer as-is and has no column-type alteration.
func (r *Repository) CoerceDateColumn(ctx context.Context, table, column string) error {
	return nil
}

// insertPrefix renders `INSERT INTO t (c1,c2) VALUES `.
func insertPrefix(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", quoteIdent(table), strings.Join(quoted, ","))
}

// multiRowInsert builds one parameterized statement for the batch with "?"
// placeholders and flattened args; short rows pad with NULL.
func multiRowInsert(prefix string, width int, batch [][]any) (string, []any) {
	group := "(" + strings.TrimSuffix(strings.Repeat("?,", width), ",") + ")"
	groups := make([]string, len(batch))
	args := make([]any, 0, len(batch)*width)
	for i, row := range batch {
		groups[i] = group
		for j := 0; j < width; j++ {
			if j < len(row) {
				args = append(args, row[j])
			} else {
				args = append(args, nil)
			}
		}
	}
	return prefix + strings.Join(groups, ","), args
}

// quoteIdent quotes an identifier for SQLite.
func quoteIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
