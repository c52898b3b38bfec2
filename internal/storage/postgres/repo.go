// Package postgres implements the storage.Repository contract on pgx v5.
// Each file loads through batched multi-row INSERTs inside one transaction;
// the post-run coercion pass promotes text columns to date via ALTER COLUMN.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adraguidev/dashboardproject-sub001/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// maxParams is the protocol's bind-parameter ceiling; batch sizes are clamped
// so a multi-row INSERT never exceeds it.
const maxParams = 65535

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository opens a pgx pool for dsn.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the pool.
func (r *Repository) Close() { r.pool.Close() }

// EnsureTable creates the table if absent with every column as TEXT.
func (r *Repository) EnsureTable(ctx context.Context, table string, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgIdent(c) + " TEXT"
	}
	sql := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgFQN(table), strings.Join(defs, ", "))
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// Truncate removes all rows from the table.
func (r *Repository) Truncate(ctx context.Context, table string) error {
	if _, err := r.pool.Exec(ctx, "TRUNCATE TABLE "+pgFQN(table)); err != nil {
		return fmt.Errorf("truncate %s: %w", table, err)
	}
	return nil
}

// LoadRows inserts every row from the channel inside a single transaction,
// flushing multi-row INSERTs of at most batchSize rows (clamped by the bind
// parameter ceiling). Any failure rolls back the whole file.
func (r *Repository) LoadRows(ctx context.Context, table string, columns []string, rows <-chan []any, batchSize int) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("load %s: no columns", table)
	}
	if max := maxParams / len(columns); batchSize > max {
		batchSize = max
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	// No-op after a successful commit.
	defer tx.Rollback(context.WithoutCancel(ctx))

	prefix := insertPrefix(table, columns)
	total, err := storage.LoadBatches(ctx, rows, batchSize, func(ctx context.Context, batch [][]any) (int64, error) {
		sql, args := multiRowInsert(prefix, len(columns), batch)
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, err
		}
		return tag.RowsAffected(), nil
	})
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit %s: %w", table, err)
	}
	return total, nil
}

// CoerceDateColumn promotes a text column to date. Already-date columns skip
// without error; the cast maps empty string and NULL to NULL.
func (r *Repository) CoerceDateColumn(ctx context.Context, table, column string) error {
	typ, err := r.columnType(ctx, table, column)
	if err != nil {
		return err
	}
	if typ == "date" {
		return nil
	}

	sql := fmt.Sprintf(
		"ALTER TABLE %s ALTER COLUMN %s TYPE date USING NULLIF(trim(%s), '')::date",
		pgFQN(table), pgIdent(column), pgIdent(column),
	)
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("alter %s.%s to date: %w", table, column, err)
	}
	return nil
}

// columnType reads the column's current data type from information_schema.
func (r *Repository) columnType(ctx context.Context, table, column string) (string, error) {
	schemaName, tableName := splitTable(table)
	var typ string
	err := r.pool.QueryRow(ctx,
		`SELECT data_type FROM information_schema.columns
		 WHERE table_schema = $1 AND table_name = $2 AND column_name = $3`,
		schemaName, tableName, column,
	).Scan(&typ)
	if err != nil {
		return "", fmt.Errorf("column type %s.%s: %w", table, column, err)
	}
	return strings.ToLower(typ), nil
}

// insertPrefix renders `INSERT INTO t (c1,c2) VALUES `.
func insertPrefix(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", pgFQN(table), strings.Join(quoted, ","))
}

// multiRowInsert builds one parameterized statement for the batch:
// prefix + ($1,$2),($3,$4),... with args flattened in row order.
func multiRowInsert(prefix string, width int, batch [][]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(prefix)
	args := make([]any, 0, len(batch)*width)

	n := 1
	for i, row := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j := 0; j < width; j++ {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", n)
			n++
			if j < len(row) {
				args = append(args, row[j])
			} else {
				args = append(args, nil)
			}
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}

// pgIdent quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.tramites" to
// "public"."tramites". With no dot, returns a single quoted identifier.
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitTable resolves "schema.table" (default schema "public") for
// information_schema lookups.
func splitTable(name string) (string, string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "public", name
}
