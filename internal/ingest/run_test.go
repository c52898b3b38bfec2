package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/adraguidev/dashboardproject-sub001/internal/rowsource"
	"github.com/adraguidev/dashboardproject-sub001/internal/schema"
	"github.com/adraguidev/dashboardproject-sub001/internal/storage/sqlite"
)

// fakeRepo records every repository call and keeps loaded rows in memory.
type fakeRepo struct {
	mu          sync.Mutex
	ensured     []string
	truncates   []string
	coerced     []string
	rows        map[string][][]any
	truncateErr error
	loadErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: map[string][][]any{}}
}

func (f *fakeRepo) EnsureTable(ctx context.Context, table string, columns []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, table)
	return nil
}

func (f *fakeRepo) Truncate(ctx context.Context, table string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.truncateErr != nil {
		return f.truncateErr
	}
	f.truncates = append(f.truncates, table)
	f.rows[table] = nil
	return nil
}

func (f *fakeRepo) LoadRows(ctx context.Context, table string, columns []string, rows <-chan []any, batchSize int) (int64, error) {
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	var staged [][]any
	for {
		select {
		case row, ok := <-rows:
			if !ok {
				f.mu.Lock()
				f.rows[table] = append(f.rows[table], staged...)
				f.mu.Unlock()
				return int64(len(staged)), nil
			}
			staged = append(staged, row)
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (f *fakeRepo) CoerceDateColumn(ctx context.Context, table, column string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coerced = append(f.coerced, table+"."+column)
	return nil
}

func (f *fakeRepo) Close() {}

func testTables() map[string]schema.Table {
	return map[string]schema.Table{
		"casos": {
			Name: "casos",
			Columns: []schema.Column{
				{Name: "numerotramite", Kind: schema.KindText, Aliases: []string{"expediente"}},
				{Name: "fechaexpediente", Kind: schema.KindDate, Aliases: []string{"fecha_ingreso"}},
			},
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunTruncatesOncePerTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f1 := writeFile(t, dir, "part1.csv", "EXPEDIENTE;FECHA_INGRESO\nA1;15/03/2024\n")
	f2 := writeFile(t, dir, "part2.csv", "EXPEDIENTE;FECHA_INGRESO\nA2;16/03/2024\nA3;\n")

	repo := newFakeRepo()
	runner := NewRunner(repo, testTables(), Options{BatchSize: 2})
	results := runner.Run(context.Background(), []FileSpec{
		{Locator: f1, Table: "casos"},
		{Locator: f2, Table: "casos"},
	})

	for i, res := range results {
		if res.State != StateCommitted {
			t.Fatalf("file %d: state=%s err=%v", i, res.State, res.Err)
		}
		if res.Fingerprint == 0 {
			t.Errorf("file %d: fingerprint not recorded", i)
		}
	}
	if results[0].Rows != 1 || results[1].Rows != 2 {
		t.Errorf("rows = %d,%d, want 1,2", results[0].Rows, results[1].Rows)
	}
	if len(repo.truncates) != 1 || repo.truncates[0] != "casos" {
		t.Errorf("truncates = %v, want exactly one for casos", repo.truncates)
	}
	if got := len(repo.rows["casos"]); got != 3 {
		t.Errorf("stored rows = %d, want 3", got)
	}
	if repo.rows["casos"][0][1] != "2024-03-15" {
		t.Errorf("date cell = %v, want 2024-03-15", repo.rows["casos"][0][1])
	}
}

func TestRunPerFileIsolation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "EXPEDIENTE;FECHA_INGRESO\nA1;15/03/2024\n")
	// Unterminated quote after the first data row.
	corrupt := writeFile(t, dir, "corrupt.csv", "EXPEDIENTE;FECHA_INGRESO\nB1;01/01/2024\nB2;\"broken\n")

	repo := newFakeRepo()
	runner := NewRunner(repo, testTables(), Options{BatchSize: 100})
	results := runner.Run(context.Background(), []FileSpec{
		{Locator: corrupt, Table: "casos"},
		{Locator: good, Table: "casos"},
	})

	if results[0].State != StateFailed || results[0].Err == nil {
		t.Fatalf("corrupt file: state=%s err=%v, want failed", results[0].State, results[0].Err)
	}
	if results[1].State != StateCommitted || results[1].Rows != 1 {
		t.Fatalf("good file: state=%s rows=%d err=%v", results[1].State, results[1].Rows, results[1].Err)
	}
	// Nothing from the corrupt file may land.
	if got := len(repo.rows["casos"]); got != 1 {
		t.Errorf("stored rows = %d, want only the good file's row", got)
	}
	// The coercion pass still covers the table.
	if len(repo.coerced) != 1 || repo.coerced[0] != "casos.fechaexpediente" {
		t.Errorf("coerced = %v, want [casos.fechaexpediente]", repo.coerced)
	}
}

func TestRunUnknownTable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "x.csv", "EXPEDIENTE\nA1\n")

	repo := newFakeRepo()
	runner := NewRunner(repo, testTables(), Options{})
	results := runner.Run(context.Background(), []FileSpec{{Locator: f, Table: "nope"}})

	if results[0].State != StateFailed || results[0].Err == nil {
		t.Fatalf("state=%s err=%v, want failed", results[0].State, results[0].Err)
	}
	if len(repo.ensured) != 0 {
		t.Errorf("ensured = %v, want no table touched", repo.ensured)
	}
	if len(repo.coerced) != 0 {
		t.Errorf("coerced = %v, want none for unknown table", repo.coerced)
	}
}

func TestRunUnsupportedFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "export.dat", "whatever")

	runner := NewRunner(newFakeRepo(), testTables(), Options{})
	results := runner.Run(context.Background(), []FileSpec{{Locator: f, Table: "casos"}})

	if results[0].State != StateFailed {
		t.Fatalf("state = %s, want failed", results[0].State)
	}
	if !errors.Is(results[0].Err, rowsource.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", results[0].Err)
	}
}

func TestRunNoColumnsMatched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "alien.csv", "FOO;BAR\n1;2\n")

	repo := newFakeRepo()
	runner := NewRunner(repo, testTables(), Options{})
	results := runner.Run(context.Background(), []FileSpec{{Locator: f, Table: "casos"}})

	if results[0].State != StateFailed {
		t.Fatalf("state = %s, want failed", results[0].State)
	}
	if !errors.Is(results[0].Err, schema.ErrNoColumnsMatched) {
		t.Errorf("err = %v, want ErrNoColumnsMatched", results[0].Err)
	}
}

func TestRunCoercionRunsAfterTotalFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	f := writeFile(t, dir, "x.csv", "EXPEDIENTE;FECHA_INGRESO\nA1;15/03/2024\n")

	repo := newFakeRepo()
	repo.loadErr = errors.New("connection reset")
	runner := NewRunner(repo, testTables(), Options{})
	results := runner.Run(context.Background(), []FileSpec{{Locator: f, Table: "casos"}})

	if results[0].State != StateFailed {
		t.Fatalf("state = %s, want failed", results[0].State)
	}
	if len(repo.coerced) != 1 {
		t.Errorf("coerced = %v, want the pass to run regardless", repo.coerced)
	}
}

func TestRunMissingFile(t *testing.T) {
	t.Parallel()

	runner := NewRunner(newFakeRepo(), testTables(), Options{})
	results := runner.Run(context.Background(), []FileSpec{
		{Locator: filepath.Join(t.TempDir(), "absent.csv"), Table: "casos"},
	})
	if results[0].State != StateFailed {
		t.Fatalf("state = %s, want failed", results[0].State)
	}
	if !errors.Is(results[0].Err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped ErrNotExist", results[0].Err)
	}
}

// End to end against a real sqlite database: the full-replace contract means
// running the same ingest twice leaves exactly one copy of the data.
func TestRunSQLiteFullReplace(t *testing.T) {
	t.Parallel()

	repo, err := sqlite.NewRepository(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()

	dir := t.TempDir()
	f := writeFile(t, dir, "casos.csv",
		"EXPEDIENTE;FECHA_INGRESO;IGNORADA\nA1;15/03/2024;x\nA2;;y\n")

	runner := NewRunner(repo, testTables(), Options{BatchSize: 10})
	for pass := 0; pass < 2; pass++ {
		results := runner.Run(context.Background(), []FileSpec{{Locator: f, Table: "casos"}})
		if results[0].State != StateCommitted || results[0].Rows != 2 {
			t.Fatalf("pass %d: state=%s rows=%d err=%v",
				pass, results[0].State, results[0].Rows, results[0].Err)
		}
	}

	var n int
	if err := repo.DB().QueryRow(`SELECT count(*) FROM "casos"`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("rows after two runs = %d, want 2", n)
	}

	var fecha any
	err = repo.DB().QueryRow(
		`SELECT "fechaexpediente" FROM "casos" WHERE "numerotramite" = 'A1'`).Scan(&fecha)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if s, ok := fecha.(string); !ok || s != "2024-03-15" {
		t.Fatalf("fechaexpediente = %#v, want 2024-03-15", fecha)
	}
}
