// Package prompush adapts the metrics.Backend interface to a Prometheus
// Pushgateway. Batch jobs cannot be scraped, so collected metrics are pushed
// at flush time under a single job grouping. All Prometheus-specific
// dependencies stay inside this package.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	pusher *push.Pusher

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec
}

// NewBackend constructs a Backend pushing under jobName to gatewayURL.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "ingest"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_step_total",
		Help: "Ingestion step executions, partitioned by table, step, and status.",
	}, []string{"table", "step", "status"})

	stepDuration := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "ingest_step_duration_seconds",
		Help: "Ingestion step latency in seconds.",
	}, []string{"table", "step", "status"})

	rowCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_total",
		Help: "Row-level outcomes, partitioned by table and kind.",
	}, []string{"table", "kind"})

	reg.MustRegister(stepCounter, stepDuration, rowCounter)

	return &Backend{
		pusher:       push.New(gatewayURL, jobName).Gatherer(reg),
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
	}, nil
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "ingest_step_total":
		b.stepCounter.WithLabelValues(labels["table"], labels["step"], labels["status"]).Add(delta)
	case "ingest_rows_total":
		b.rowCounter.WithLabelValues(labels["table"], labels["kind"]).Add(delta)
	}
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	if name == "ingest_step_duration_seconds" {
		b.stepDuration.WithLabelValues(labels["table"], labels["step"], labels["status"]).Observe(seconds)
	}
}

// Flush pushes all collected metrics to the gateway.
func (b *Backend) Flush() error { return b.pusher.Push() }
