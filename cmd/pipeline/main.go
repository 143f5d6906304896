// Command pipeline runs one full ingest + analysis invocation: the same
// sequential flow the scheduler triggers hourly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bdo-market-etl/internal/catalog"
	"bdo-market-etl/internal/config"
	"bdo-market-etl/internal/market"
	"bdo-market-etl/internal/pipeline"
	"bdo-market-etl/internal/storage/migrations"
	pgstore "bdo-market-etl/internal/storage/postgres"
)

func main() {
	endpointKey := flag.String("endpoint", "sub", "Endpoint key to scrape")
	reportKey := flag.String("report", "profit", "Report key to generate")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "pipeline")
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

	p.RunIngest(ctx, *endpointKey)
	p.RunAnalysis(ctx, *reportKey)
}
