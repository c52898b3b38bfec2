package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// InsertFn abstracts a backend's bulk insert for one batch. Implementations
// insert the rows (aligned to the caller's column order) and return the
// number of rows inserted. A failed batch fails the whole load.
type InsertFn func(ctx context.Context, rows [][]any) (int64, error)

// LoadBatches drains canonical rows from 'in', groups them into batches of
// size batchSize, and calls insertFn per non-empty batch. The final partial
// batch is flushed at stream end. Cancellation is checked at every flush
// boundary; on cancel it returns (total, ctx.Err()).
//
// On every successful flush a concise progress line is emitted with running
// totals and instantaneous rows/sec since the previous flush.
func LoadBatches(ctx context.Context, in <-chan []any, batchSize int, insertFn InsertFn) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if insertFn == nil {
		return 0, fmt.Errorf("insertFn must not be nil")
	}

	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := insertFn(ctx, batch)
		total += n

		// Reuse the allocated slice; keep capacity to avoid churn.
		batch = batch[:0]

		if err != nil {
			log.Printf("loader: insert failed after=%d total=%d err=%v", n, total, err)
			return err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Printf(
			"batch #%d: rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total

		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				// Stream end: flush the final partial batch.
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
