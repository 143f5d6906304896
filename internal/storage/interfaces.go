package storage

import (
	"context"
	"time"

	"bdo-market-etl/internal/domain"
)

// SnapshotFilter narrows a snapshot read. Zero-value fields are ignored.
type SnapshotFilter struct {
	// Name is a case-insensitive substring match.
	Name string
	// Tier is an exact sid match.
	Tier *int
	// At selects the one-hour bucket containing the instant. When nil, the
	// read defaults to rows at or after the start of the current hour.
	At *time.Time
}

// SnapshotStore provides append-only access to the raw snapshot tables.
type SnapshotStore interface {
	// InsertBatch persists rows into the allow-listed table inside one
	// transaction, silently skipping rows whose (scrape_time, item_id, sid)
	// key already exists. Re-running an identical batch is a no-op. Any
	// failure rolls the whole batch back.
	InsertBatch(ctx context.Context, table string, rows []*domain.SnapshotRow) error

	// FetchLatest reads snapshot rows matching the filter. An empty result
	// is not an error.
	FetchLatest(ctx context.Context, table string, f SnapshotFilter) ([]*domain.SnapshotRow, error)
}

// ReportStore provides append-only access to the report tables.
type ReportStore interface {
	// InsertBatch persists report rows, silently skipping rows whose
	// (analyze_time, name, sid) key already exists, so report generation is
	// safely re-runnable within an hour bucket.
	InsertBatch(ctx context.Context, table string, rows []*domain.ProfitReportRow) error

	// Latest returns the rows of the most recent hour bucket present in the
	// table, ordered by rate descending. Returns ErrNotFound when the table
	// holds no reports.
	Latest(ctx context.Context, table string) ([]*domain.ProfitReportRow, error)
}
