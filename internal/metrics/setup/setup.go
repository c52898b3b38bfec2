// Package setup installs the process-wide metrics backend from flag and
// environment input. It sits above the backend packages so both binaries
// share one flag → env → default chain.
package setup

import (
	"log"
	"os"

	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics/datadog"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics/prompush"
)

// Install selects and installs the metrics backend. Decide backend and
// addresses flag → env → default; on any init failure the nop backend stays.
func Install(backendName, gwURL, ddAddr string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("ingest", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%v", gwURL)
		metrics.SetBackend(b)

	case "dogstatsd":
		if ddAddr == "" {
			ddAddr = os.Getenv("DOGSTATSD_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(ddAddr, "ingest")
		if err != nil {
			log.Printf("metrics: failed to init dogstatsd backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=dogstatsd addr=%v", ddAddr)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}
