// Package ingest implements the run orchestrator: the single canonical
// pipeline that loads a set of export files into their target tables and
// then promotes date columns.
//
// Each file is isolated: it either commits fully or rolls back fully, and a
// failure never affects sibling files. After every file has reached a
// terminal state the type-coercion pass runs once across all tables the run
// touched, even when every file failed.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"github.com/adraguidev/dashboardproject-sub001/internal/datasource"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
	"github.com/adraguidev/dashboardproject-sub001/internal/rowsource"
	"github.com/adraguidev/dashboardproject-sub001/internal/schema"
	"github.com/adraguidev/dashboardproject-sub001/internal/storage"
	"github.com/adraguidev/dashboardproject-sub001/internal/transform"
)

// FileSpec names one file to ingest and its target table.
type FileSpec struct {
	Locator string `json:"locator"`
	Table   string `json:"table"`
}

// State is a file's position in the per-file state machine.
type State string

const (
	StatePending   State = "pending"
	StatePreparing State = "preparing"
	StateLoading   State = "loading"
	StateCommitted State = "committed"
	StateFailed    State = "failed"
)

// FileResult is the terminal outcome for one file.
type FileResult struct {
	Spec        FileSpec
	State       State
	Rows        int64
	Fingerprint uint64 // xxh3 of the bytes streamed from the source
	Err         error
}

// Options tunes a Runner.
type Options struct {
	// BatchSize is the insert flush threshold in rows.
	BatchSize int

	// Delimiter is the field separator for delimited-text files.
	Delimiter rune

	// LazyQuotes relaxes csv quote handling for known-dirty exports.
	LazyQuotes bool
}

// resolveLocator is a seam for tests; production uses datasource.Resolve.
var resolveLocator = datasource.Resolve

// Runner sequences the ingestion pipeline for one run at a time. It holds no
// per-run state and is safe to reuse across runs.
type Runner struct {
	repo   storage.Repository
	tables map[string]schema.Table
	opts   Options
}

// NewRunner builds a Runner over an open repository and the canonical
// schema set.
func NewRunner(repo storage.Repository, tables map[string]schema.Table, opts Options) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &Runner{repo: repo, tables: tables, opts: opts}
}

// Run processes every file to a terminal state, sequentially and in order,
// then runs the coercion pass over all tables the run referenced. There are
// no retries; a failed file is reported and skipped. The returned slice is
// aligned with files.
func (r *Runner) Run(ctx context.Context, files []FileSpec) []FileResult {
	start := time.Now()
	results := make([]FileResult, len(files))

	// Truncation happens at most once per table per run, before that
	// table's first file loads.
	truncated := map[string]bool{}

	// Tables referenced by the run, in first-appearance order, for the
	// coercion pass. Unknown table names are excluded.
	var runTables []schema.Table
	seen := map[string]bool{}

	for i, spec := range files {
		results[i] = FileResult{Spec: spec, State: StatePending}
		res := &results[i]

		table, ok := r.tables[spec.Table]
		if !ok {
			res.State = StateFailed
			res.Err = fmt.Errorf("no canonical schema configured for table %q", spec.Table)
			log.Printf("ingest: %s -> %s: %v", spec.Locator, spec.Table, res.Err)
			continue
		}
		if !seen[table.Name] {
			seen[table.Name] = true
			runTables = append(runTables, table)
		}

		fileStart := time.Now()
		r.runFile(ctx, res, table, truncated)
		metrics.RecordStep(table.Name, "load", res.Err, time.Since(fileStart))

		switch res.State {
		case StateCommitted:
			metrics.RecordRows(table.Name, "inserted", res.Rows)
			log.Printf("ingest: %s -> %s: committed rows=%d fingerprint=%016x in %s",
				spec.Locator, table.Name, res.Rows, res.Fingerprint,
				time.Since(fileStart).Truncate(time.Millisecond))
		case StateFailed:
			metrics.RecordRows(table.Name, "failed_files", 1)
			log.Printf("ingest: %s -> %s: failed: %v", spec.Locator, table.Name, res.Err)
		}
	}

	r.coercePass(ctx, runTables)

	committed, failed := 0, 0
	for _, res := range results {
		if res.State == StateCommitted {
			committed++
		} else {
			failed++
		}
	}
	log.Printf("ingest: run done files=%d committed=%d failed=%d elapsed=%s",
		len(files), committed, failed, time.Since(start).Truncate(time.Millisecond))
	return results
}

// runFile drives one file through preparing and loading. On return res is in
// a terminal state.
func (r *Runner) runFile(ctx context.Context, res *FileResult, table schema.Table, truncated map[string]bool) {
	res.State = StatePreparing

	src, err := resolveLocator(res.Spec.Locator)
	if err != nil {
		res.State, res.Err = StateFailed, err
		return
	}

	if err := r.repo.EnsureTable(ctx, table.Name, table.ColumnNames()); err != nil {
		res.State, res.Err = StateFailed, err
		return
	}
	if !truncated[table.Name] {
		if err := r.repo.Truncate(ctx, table.Name); err != nil {
			res.State, res.Err = StateFailed, err
			return
		}
		truncated[table.Name] = true
	}

	res.State = StateLoading
	rows, sum, err := r.loadFile(ctx, src, table)
	res.Fingerprint = sum
	if err != nil {
		res.State, res.Err = StateFailed, err
		return
	}
	res.State, res.Rows = StateCommitted, rows
}

// loadFile streams one file through parse → project → transform → load. The
// producer and loader run concurrently with bounded buffering; a parse error
// cancels the load before it can commit, and a load error stops the
// producer. Returns the committed row count and the source fingerprint.
func (r *Runner) loadFile(ctx context.Context, src datasource.Source, table schema.Table) (int64, uint64, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()

	hash := xxh3.New()
	rs, err := rowsource.Open(io.TeeReader(rc, hash), src.Name(), rowsource.Options{
		Delimiter:  r.opts.Delimiter,
		LazyQuotes: r.opts.LazyQuotes,
	})
	if err != nil {
		return 0, 0, err
	}
	defer rs.Close()

	header, err := rs.Read()
	if err == io.EOF {
		return 0, hash.Sum64(), fmt.Errorf("%s: file is empty", src.Name())
	}
	if err != nil {
		return 0, hash.Sum64(), err
	}
	headerText := make([]string, len(header))
	for i, cell := range header {
		headerText[i] = cell.Text()
	}

	proj, err := schema.Project(headerText, table)
	if err != nil {
		return 0, hash.Sum64(), err
	}
	log.Printf("ingest: %s -> %s: matched %d/%d canonical columns",
		src.Name(), table.Name, proj.Matched(), len(table.Columns))

	tr := transform.New(proj)
	g, gctx := errgroup.WithContext(ctx)
	rowCh := make(chan []any, 256)

	// Producer. rowCh is closed only on clean EOF: a parse error leaves it
	// open and relies on group cancellation, so the loader can never flush
	// and commit a partially parsed file.
	g.Go(func() error {
		for {
			raw, err := rs.Read()
			if err == io.EOF {
				close(rowCh)
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case rowCh <- tr.Apply(raw):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	// Loader: one transaction for the whole file.
	var total int64
	g.Go(func() error {
		var err error
		total, err = r.repo.LoadRows(gctx, table.Name, table.ColumnNames(), rowCh, r.opts.BatchSize)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, hash.Sum64(), err
	}
	return total, hash.Sum64(), nil
}

// coercePass promotes every designated date column of every table the run
// referenced. Failures are logged and skipped; one pair can never abort
// another.
func (r *Runner) coercePass(ctx context.Context, tables []schema.Table) {
	for _, table := range tables {
		for _, col := range table.DateColumns() {
			start := time.Now()
			err := r.repo.CoerceDateColumn(ctx, table.Name, col)
			metrics.RecordStep(table.Name, "coerce", err, time.Since(start))
			if err != nil {
				log.Printf("ingest: coerce %s.%s: left as text: %v", table.Name, col, err)
				continue
			}
			log.Printf("ingest: coerce %s.%s: ok", table.Name, col)
		}
	}
}
