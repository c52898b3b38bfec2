package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adraguidev/dashboardproject-sub001/internal/config"
	"github.com/adraguidev/dashboardproject-sub001/internal/ingest"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics/setup"
	"github.com/adraguidev/dashboardproject-sub001/internal/storage"
	"github.com/adraguidev/dashboardproject-sub001/internal/webapi"

	_ "github.com/adraguidev/dashboardproject-sub001/internal/storage/all"
)

// main starts the HTTP trigger server. It shares the schema config with the
// CLI; runs arrive as POST /api/ingest requests instead of command-line
// arguments.
func main() {
	var (
		cfgPath           string
		addr              string
		maxRuns           int
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
	)
	flag.StringVar(&cfgPath, "config", "configs/ingest.sample.json", "ingest config JSON path")
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.IntVar(&maxRuns, "max-runs", 0, "run registry bound (0 = default)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, dogstatsd, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD agent address (overrides env DOGSTATSD_ADDR)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %v", cfgPath)
	}

	setup.Install(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, false)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	runner := ingest.NewRunner(repo, cfg.SchemaSet(), ingest.Options{
		BatchSize:  cfg.BatchSize(),
		Delimiter:  cfg.DelimiterRune(),
		LazyQuotes: cfg.Source.LazyQuotes,
	})

	srv := webapi.NewServer(webapi.Config{Addr: addr, MaxRuns: maxRuns}, runner.Run)
	log.Printf("ingest-server: listening on %s (storage=%s tables=%d)",
		addr, cfg.Storage.Kind, len(cfg.Tables))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("%v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
