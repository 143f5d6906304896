// Command server exposes the stored reports over HTTP.
package main

import (
	"context"
	"log/slog"
	"os"

	"bdo-market-etl/internal/config"
	"bdo-market-etl/internal/server"
	pgstore "bdo-market-etl/internal/storage/postgres"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "server")
	slog.SetDefault(logger)

	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	srv := server.New(pgstore.NewReportStore(pool, logger), logger)

	addr := ":" + cfg.Port
	logger.Info("report server listening", "addr", addr)
	if err := srv.Router().Run(addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
