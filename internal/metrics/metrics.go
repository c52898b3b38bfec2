// Package metrics is a small, backend-agnostic layer for recording
// operational metrics from the ingestion pipeline. It exposes a narrow
// Backend interface and a global, pluggable backend defaulting to a no-op,
// so metric calls are always safe even when nothing is configured. Concrete
// systems (Pushgateway, DogStatsD) live in subpackages so the rest of the
// codebase stays decoupled from any one of them.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveDuration records a latency-style observation in seconds.
	ObserveDuration(name string, seconds float64, labels Labels)
	// Flush pushes collected metrics if the backend needs it.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveDuration(string, float64, Labels)  {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error { return backend.Flush() }

// RecordStep measures one pipeline step for a table: latency plus a
// success/failure counter. Typical steps: "prepare", "load", "coerce".
func RecordStep(table, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"table": table, "step": step, "status": status}
	backend.IncCounter("ingest_step_total", 1, lbls)
	backend.ObserveDuration("ingest_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows counts row-level outcomes for a table. Typical kinds:
// "inserted", "failed_files".
func RecordRows(table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("ingest_rows_total", float64(delta), Labels{"table": table, "kind": kind})
}
