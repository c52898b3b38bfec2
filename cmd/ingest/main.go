package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/adraguidev/dashboardproject-sub001/internal/config"
	"github.com/adraguidev/dashboardproject-sub001/internal/ingest"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics"
	"github.com/adraguidev/dashboardproject-sub001/internal/metrics/setup"
	"github.com/adraguidev/dashboardproject-sub001/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "github.com/adraguidev/dashboardproject-sub001/internal/storage/all"
)

// main is the entry point for the ingest binary. It loads the schema config,
// optionally initializes a metrics backend, and runs one ingestion pass over
// the files named on the command line.
//
// Usage:
//
//	ingest -config configs/ingest.sample.json casos=/data/casos.xlsx casos=s3://bucket/part2.csv
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "configs/ingest.sample.json", "ingest config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, dogstatsd, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD agent address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

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
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	files, err := parseFileArgs(flag.Args())
	if err != nil {
		fatalf("%v", err)
	}
	if len(files) == 0 {
		fatalf("nothing to do: pass at least one table=locator argument")
	}

	setup.Install(metricsBackendFlg, pushGatewayURLFlg, dogstatsdAddrFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	if *verbose {
		log.Printf("ingest: storage=%s tables=%d files=%d batch=%d",
			cfg.Storage.Kind, len(cfg.Tables), len(files), cfg.BatchSize())
	}

	runner := ingest.NewRunner(repo, cfg.SchemaSet(), ingest.Options{
		BatchSize:  cfg.BatchSize(),
		Delimiter:  cfg.DelimiterRune(),
		LazyQuotes: cfg.Source.LazyQuotes,
	})
	results := runner.Run(ctx, files)

	failed := 0
	for _, res := range results {
		if res.State != ingest.StateCommitted {
			failed++
		}
	}
	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	if failed > 0 {
		log.Printf("ingest: %d of %d files failed", failed, len(results))
		os.Exit(1)
	}
}

// parseFileArgs turns positional "table=locator" arguments into FileSpecs,
// keeping command-line order.
func parseFileArgs(args []string) ([]ingest.FileSpec, error) {
	files := make([]ingest.FileSpec, 0, len(args))
	for _, arg := range args {
		table, locator, ok := strings.Cut(arg, "=")
		if !ok || table == "" || locator == "" {
			return nil, fmt.Errorf("bad argument %q: want table=locator", arg)
		}
		files = append(files, ingest.FileSpec{Locator: locator, Table: table})
	}
	return files, nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
