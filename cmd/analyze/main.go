// Command analyze runs one profit-report generation, or an ad-hoc trend query
// when -trend is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bdo-market-etl/internal/config"
	"bdo-market-etl/internal/pipeline"
	"bdo-market-etl/internal/storage/migrations"
	pgstore "bdo-market-etl/internal/storage/postgres"
)

func main() {
	reportKey := flag.String("report", "profit", "Report key to generate")
	trendDays := flag.Int("trend", 0, "Run a trend query over this many days instead")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "analyze")
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

	p := pipeline.New(pipeline.Options{
		Snapshots: pgstore.NewSnapshotStore(pool, logger),
		Reports:   pgstore.NewReportStore(pool, logger),
		Merchant:  cfg.Merchant,
		Logger:    logger,
	})

	if *trendDays > 0 {
		results, err := p.RunTrend(ctx, *trendDays)
		if err != nil {
			logger.Error("trend analysis failed", "kind", pipeline.Classify(err), "err", err)
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Println("no trend data to compare")
			return
		}
		fmt.Printf("%-40s %5s %12s %16s\n", "NAME", "SID", "VOL CHANGE", "AVG TRADES/DAY")
		for _, r := range results {
			avg := "-"
			if r.AvgTradesPerDay != nil {
				avg = fmt.Sprintf("%.2f", *r.AvgTradesPerDay)
			}
			fmt.Printf("%-40s %5d %12d %16s\n", r.Name, r.Tier, r.VolumeChange, avg)
		}
		return
	}

	p.RunAnalysis(ctx, *reportKey)
}
