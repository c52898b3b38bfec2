// Package datadog adapts the metrics.Backend interface to a DogStatsD agent.
// Metrics ship over UDP as they are recorded; Flush drains the client's
// buffer.
package datadog

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"

	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
)

// Backend is a DogStatsD metrics backend.
type Backend struct {
	client *statsd.Client
}

// NewBackend connects to the agent at addr (e.g. "127.0.0.1:8125").
func NewBackend(addr, namespace string) (*Backend, error) {
	if addr == "" {
		return nil, fmt.Errorf("datadog: agent address is required")
	}
	client, err := statsd.New(addr, statsd.WithNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("datadog: %w", err)
	}
	return &Backend{client: client}, nil
}

func tags(labels metrics.Labels) []string {
	out := make([]string, 0, len(labels))
	for k, v := range labels {
		out = append(out, k+":"+v)
	}
	return out
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	_ = b.client.Count(name, int64(delta), tags(labels), 1)
}

// ObserveDuration implements metrics.Backend.
func (b *Backend) ObserveDuration(name string, seconds float64, labels metrics.Labels) {
	_ = b.client.Timing(name, time.Duration(seconds*float64(time.Second)), tags(labels), 1)
}

// Flush implements metrics.Backend.
func (b *Backend) Flush() error { return b.client.Flush() }
