// Package pipeline wires fetch, storage and analysis into the idempotent
// entry points the scheduler invokes.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"bdo-market-etl/internal/analysis"
	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/market"
	"bdo-market-etl/internal/observability"
	"bdo-market-etl/internal/storage"
)

// Options configure a Pipeline.
type Options struct {
	Market    *market.Client
	Snapshots storage.SnapshotStore
	Reports   storage.ReportStore
	// ItemName is the catalog name ingest resolves when no explicit ids are
	// given.
	ItemName string
	// Merchant selects the merchant after-tax rate for profit analysis.
	Merchant bool
	Logger   *slog.Logger
	// Now overrides the wall clock for analysis tagging.
	Now func() time.Time
}

// Pipeline runs the sequential fetch → store → analyze → store flow. It is
// single-threaded per invocation; concurrent scheduler invocations are made
// harmless by the ingest and report idempotency keys, not by locking here.
type Pipeline struct {
	market    *market.Client
	snapshots storage.SnapshotStore
	reports   storage.ReportStore
	itemName  string
	merchant  bool
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	itemName := opts.ItemName
	if itemName == "" {
		itemName = "all"
	}
	return &Pipeline{
		market:    opts.Market,
		snapshots: opts.Snapshots,
		reports:   opts.Reports,
		itemName:  itemName,
		merchant:  opts.Merchant,
		logger:    logger,
		now:       now,
	}
}

// RunIngest fetches the current market rows for the endpoint key and persists
// them. All taxonomy failures are logged and absorbed: a failed hourly run
// must not crash the scheduler process.
func (p *Pipeline) RunIngest(ctx context.Context, endpointKey string) {
	logger := p.logger.With("run", "ingest", "endpoint", endpointKey)
	started := time.Now()

	fetched, err := p.ingest(ctx, endpointKey)
	if err != nil {
		observability.RecordIngestRun(Classify(err), time.Since(started).Seconds(), fetched, 0)
		logger.Error("ingest run failed", "kind", Classify(err), "err", err)
		return
	}
	observability.RecordIngestRun("ok", time.Since(started).Seconds(), fetched, fetched)
	observability.MarkIngestSuccess(p.now().Unix())
	logger.Info("ingest run complete", "rows", fetched)
}

func (p *Pipeline) ingest(ctx context.Context, endpointKey string) (int, error) {
	table, err := storage.ScrapeTable(endpointKey)
	if err != nil {
		return 0, err
	}
	rows, err := p.market.Fetch(ctx, endpointKey, market.Selector{ItemName: p.itemName})
	if err != nil {
		return 0, err
	}
	return len(rows), p.snapshots.InsertBatch(ctx, table, rows)
}

// RunAnalysis derives the profit report for the report key from the latest
// snapshot and persists it. Like RunIngest, failures are logged, not
// propagated. Items with incomplete comparison data are skipped and logged
// individually; the rest of the batch still lands.
func (p *Pipeline) RunAnalysis(ctx context.Context, reportKey string) {
	logger := p.logger.With("run", "analysis", "report", reportKey)
	started := time.Now()

	stored, skipped, err := p.analyze(ctx, reportKey, logger)
	if err != nil {
		observability.RecordAnalysisRun(Classify(err), time.Since(started).Seconds(), 0, skipped)
		logger.Error("analysis run failed", "kind", Classify(err), "err", err)
		return
	}
	observability.RecordAnalysisRun("ok", time.Since(started).Seconds(), stored, skipped)
	observability.MarkAnalysisSuccess(p.now().Unix())
	logger.Info("analysis run complete", "rows", stored, "items_skipped", skipped)
}

func (p *Pipeline) analyze(ctx context.Context, reportKey string, logger *slog.Logger) (stored, skipped int, err error) {
	source, err := storage.ReportSource(reportKey)
	if err != nil {
		return 0, 0, err
	}
	reportTable, err := storage.ReportTable(reportKey)
	if err != nil {
		return 0, 0, err
	}

	rows, err := p.snapshots.FetchLatest(ctx, source, storage.SnapshotFilter{})
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		logger.Warn("no snapshot data to analyze")
		return 0, 0, nil
	}

	report, itemErrs := analysis.AnalyzeProfit(rows, analysis.ProfitOptions{
		Merchant: p.merchant,
		Now:      p.now,
	})
	for _, ie := range itemErrs {
		logger.Warn("item skipped", "item_id", ie.ItemID, "name", ie.Name, "tier", ie.Tier, "err", ie.Cause)
	}
	if len(report) == 0 {
		logger.Warn("analysis produced no report rows")
		return 0, len(itemErrs), nil
	}

	if err := p.reports.InsertBatch(ctx, reportTable, report); err != nil {
		return 0, len(itemErrs), err
	}
	return len(report), len(itemErrs), nil
}

// RunTrend computes the trading-volume trend over the look-back period. The
// ranked result is returned to the caller, not persisted; unlike the
// scheduled runs, errors propagate because the caller asked directly.
func (p *Pipeline) RunTrend(ctx context.Context, periodDays int) ([]*domain.TrendResult, error) {
	analyzer, err := analysis.NewTrendAnalyzer(p.snapshots, p.logger)
	if err != nil {
		return nil, err
	}
	return analyzer.WithClock(p.now).Analyze(ctx, periodDays)
}
