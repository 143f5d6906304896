package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool   *Pool
	logger *slog.Logger
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{pool: pool, logger: logger}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBatch persists rows into table inside one transaction. Rows whose
// (scrape_time, item_id, sid) key already exists are silently skipped, not
// overwritten and not reported as errors, so ingest is idempotent and safe
// to re-run for the same hour. Any failure rolls the whole batch back.
func (s *SnapshotStore) InsertBatch(ctx context.Context, table string, rows []*domain.SnapshotRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no rows to store", storage.ErrInvalidInput)
	}
	table, err := ident(table, storage.AllowedScrapeTable)
	if err != nil {
		return err
	}

	if err := s.ensureTable(ctx, table); err != nil {
		return storage.NewError(storage.KindWrite, fmt.Sprintf("ensure table %s", table), err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.NewError(storage.KindConnection, "begin tx", err)
	}
	defer tx.Rollback(ctx)

	query := fmt.Sprintf(`
		INSERT INTO %s (
			scrape_time, category, name, item_id, sid, min_enhance, max_enhance,
			base_price, current_stock, total_trades, price_min, price_max,
			last_sold_price, last_sold_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (scrape_time, item_id, sid) DO NOTHING
	`, table)

	inserted := int64(0)
	for _, r := range rows {
		tag, err := tx.Exec(ctx, query,
			r.ScrapeTime,
			string(r.Category),
			r.Name,
			r.ItemID,
			r.Tier,
			r.MinEnhance,
			r.MaxEnhance,
			r.BasePrice,
			r.CurrentStock,
			r.TotalTrades,
			r.PriceMin,
			r.PriceMax,
			r.LastSoldPrice,
			r.LastSoldTime,
		)
		if err != nil {
			return storage.NewError(storage.KindWrite, fmt.Sprintf("insert snapshot row into %s", table), err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.NewError(storage.KindWrite, "commit tx", err)
	}

	s.logger.Info("stored snapshot batch",
		"table", table, "rows", len(rows), "inserted", inserted, "skipped", int64(len(rows))-inserted)
	return nil
}

// FetchLatest reads snapshot rows matching the filter. Without a time filter
// the read covers rows at or after the start of the current hour; a full time
// point narrows it to the one-hour bucket containing it. An empty result is
// returned as-is with a warning logged.
func (s *SnapshotStore) FetchLatest(ctx context.Context, table string, f storage.SnapshotFilter) ([]*domain.SnapshotRow, error) {
	table, err := ident(table, storage.AllowedScrapeTable)
	if err != nil {
		return nil, err
	}

	var (
		conds  []string
		params []any
	)
	arg := func(v any) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	if f.Name != "" {
		conds = append(conds, "name ILIKE "+arg("%"+f.Name+"%"))
	}
	if f.Tier != nil {
		conds = append(conds, "sid = "+arg(*f.Tier))
	}
	if f.At == nil {
		conds = append(conds, "scrape_time >= "+arg(domain.HourBucket(time.Now())))
	} else {
		start := domain.HourBucket(*f.At)
		conds = append(conds, "scrape_time >= "+arg(start), "scrape_time < "+arg(start.Add(time.Hour)))
	}

	query := fmt.Sprintf(`
		SELECT scrape_time, category, name, item_id, sid, min_enhance, max_enhance,
		       base_price, current_stock, total_trades, price_min, price_max,
		       last_sold_price, last_sold_time
		FROM %s
		WHERE %s
		ORDER BY item_id ASC, sid ASC
	`, table, strings.Join(conds, " AND "))

	pgRows, err := s.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, storage.NewError(storage.KindQuery, fmt.Sprintf("fetch snapshot rows from %s", table), err)
	}
	defer pgRows.Close()

	rows, err := scanSnapshotRows(pgRows)
	if err != nil {
		return nil, storage.NewError(storage.KindQuery, fmt.Sprintf("scan snapshot rows from %s", table), err)
	}
	if len(rows) == 0 {
		s.logger.Warn("snapshot query returned no results", "table", table)
	}
	return rows, nil
}

// ensureTable creates the snapshot relation if absent, with the uniqueness
// constraint the idempotent insert relies on.
func (s *SnapshotStore) ensureTable(ctx context.Context, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			scrape_id       BIGSERIAL PRIMARY KEY,
			scrape_time     TIMESTAMPTZ NOT NULL,
			category        VARCHAR(16) NOT NULL,
			name            VARCHAR(255) NOT NULL,
			item_id         INT NOT NULL,
			sid             INT NOT NULL CHECK (sid BETWEEN 0 AND 20),
			min_enhance     INT NOT NULL DEFAULT 0,
			max_enhance     INT NOT NULL DEFAULT 0,
			base_price      BIGINT NOT NULL DEFAULT 0,
			current_stock   BIGINT NOT NULL DEFAULT 0,
			total_trades    BIGINT NOT NULL DEFAULT 0,
			price_min       BIGINT NOT NULL DEFAULT 0,
			price_max       BIGINT NOT NULL DEFAULT 0,
			last_sold_price BIGINT NOT NULL DEFAULT 0,
			last_sold_time  TIMESTAMPTZ,
			UNIQUE (scrape_time, item_id, sid)
		)
	`, table)
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

// scanSnapshotRows scans multiple rows into a slice of SnapshotRow.
func scanSnapshotRows(pgRows pgx.Rows) ([]*domain.SnapshotRow, error) {
	var rows []*domain.SnapshotRow

	for pgRows.Next() {
		var (
			r        domain.SnapshotRow
			category string
		)
		err := pgRows.Scan(
			&r.ScrapeTime,
			&category,
			&r.Name,
			&r.ItemID,
			&r.Tier,
			&r.MinEnhance,
			&r.MaxEnhance,
			&r.BasePrice,
			&r.CurrentStock,
			&r.TotalTrades,
			&r.PriceMin,
			&r.PriceMax,
			&r.LastSoldPrice,
			&r.LastSoldTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Category = domain.ParseCategory(category)
		rows = append(rows, &r)
	}

	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return rows, nil
}
