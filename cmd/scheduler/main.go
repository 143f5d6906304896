// Command scheduler drives the pipeline on an hourly cadence: ingest at the
// top of each hour, analysis after a short settle delay. Runs are idempotent,
// so an overlapping or repeated hour is harmless.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bdo-market-etl/internal/catalog"
	"bdo-market-etl/internal/config"
	"bdo-market-etl/internal/market"
	"bdo-market-etl/internal/pipeline"
	"bdo-market-etl/internal/storage/migrations"
	pgstore "bdo-market-etl/internal/storage/postgres"
)

// settleDelay gives the ingest transaction time to land before analysis
// reads the same hour bucket.
const settleDelay = 10 * time.Second

func main() {
	endpointKey := flag.String("endpoint", "sub", "Endpoint key to scrape")
	reportKey := flag.String("report", "profit", "Report key to generate")
	runNow := flag.Bool("run-now", false, "Run one cycle immediately instead of waiting for the next hour")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "scheduler")
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	cat, err := catalog.Load(cfg.ItemListPath, logger)
	if err != nil {
		logger.Error("catalog load failed", "err", err)
		os.Exit(1)
	}

	p := pipeline.New(pipeline.Options{
		Market:    market.NewClient(cfg.BaseURL, cfg.Region, cfg.Language, cat, market.WithLogger(logger)),
		Snapshots: pgstore.NewSnapshotStore(pool, logger),
		Reports:   pgstore.NewReportStore(pool, logger),
		ItemName:  cfg.ItemName,
		Merchant:  cfg.Merchant,
		Logger:    logger,
	})

	if *runNow {
		cycle(ctx, p, *endpointKey, *reportKey)
	}

	for {
		next := time.Now().Truncate(time.Hour).Add(time.Hour)
		logger.Info("waiting for next run", "at", next)
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopping")
			return
		case <-time.After(time.Until(next)):
			cycle(ctx, p, *endpointKey, *reportKey)
		}
	}
}

// cycle runs one ingest + analysis sequence. The pipeline entry points absorb
// their own failures, so a bad hour never stops the loop.
func cycle(ctx context.Context, p *pipeline.Pipeline, endpointKey, reportKey string) {
	p.RunIngest(ctx, endpointKey)

	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	p.RunAnalysis(ctx, reportKey)
}
