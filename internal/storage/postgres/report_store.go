package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"bdo-market-etl/internal/domain"
	"bdo-market-etl/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
type ReportStore struct {
	pool   *Pool
	logger *slog.Logger
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool, logger *slog.Logger) *ReportStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStore{pool: pool, logger: logger}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// InsertBatch persists report rows inside one transaction. Rows whose
// (analyze_time, name, sid) key already exists are silently skipped, making
// report generation re-runnable for the same hour.
func (s *ReportStore) InsertBatch(ctx context.Context, table string, rows []*domain.ProfitReportRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no report rows to store", storage.ErrInvalidInput)
	}
	table, err := ident(table, storage.AllowedReportTable)
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
		INSERT INTO %s (analyze_time, category, name, sid, price, profit, rate, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (analyze_time, name, sid) DO NOTHING
	`, table)

	inserted := int64(0)
	for _, r := range rows {
		tag, err := tx.Exec(ctx, query,
			r.AnalyzeTime,
			string(r.Category),
			r.Name,
			r.Tier,
			r.Price,
			r.Profit,
			r.Rate,
			r.Stock,
		)
		if err != nil {
			return storage.NewError(storage.KindWrite, fmt.Sprintf("insert report row into %s", table), err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.NewError(storage.KindWrite, "commit tx", err)
	}

	s.logger.Info("stored report batch",
		"table", table, "rows", len(rows), "inserted", inserted, "skipped", int64(len(rows))-inserted)
	return nil
}

// Latest returns the rows of the most recent hour bucket in the table,
// ordered by rate descending.
func (s *ReportStore) Latest(ctx context.Context, table string) ([]*domain.ProfitReportRow, error) {
	table, err := ident(table, storage.AllowedReportTable)
	if err != nil {
		return nil, err
	}

	// MAX over an empty table yields NULL, hence the pointer scan.
	var latest *time.Time
	err = s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT MAX(analyze_time) FROM %s`, table)).Scan(&latest)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, storage.NewError(storage.KindQuery, fmt.Sprintf("latest analyze time in %s", table), err)
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	query := fmt.Sprintf(`
		SELECT analyze_time, category, name, sid, price, profit, rate, stock
		FROM %s
		WHERE analyze_time = $1
		ORDER BY rate DESC, name ASC, sid ASC
	`, table)

	pgRows, err := s.pool.Query(ctx, query, *latest)
	if err != nil {
		return nil, storage.NewError(storage.KindQuery, fmt.Sprintf("fetch report rows from %s", table), err)
	}
	defer pgRows.Close()

	rows, err := scanReportRows(pgRows)
	if err != nil {
		return nil, storage.NewError(storage.KindQuery, fmt.Sprintf("scan report rows from %s", table), err)
	}
	if len(rows) == 0 {
		return nil, storage.ErrNotFound
	}
	return rows, nil
}

func (s *ReportStore) ensureTable(ctx context.Context, table string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			analyze_id   BIGSERIAL PRIMARY KEY,
			analyze_time TIMESTAMPTZ NOT NULL,
			category     VARCHAR(16) NOT NULL,
			name         VARCHAR(255) NOT NULL,
			sid          INT NOT NULL,
			price        BIGINT NOT NULL DEFAULT 0,
			profit       DOUBLE PRECISION NOT NULL DEFAULT 0,
			rate         DOUBLE PRECISION NOT NULL DEFAULT 0,
			stock        BIGINT NOT NULL DEFAULT 0,
			UNIQUE (analyze_time, name, sid)
		)
	`, table)
	_, err := s.pool.Exec(ctx, ddl)
	return err
}

func scanReportRows(pgRows pgx.Rows) ([]*domain.ProfitReportRow, error) {
	var rows []*domain.ProfitReportRow

	for pgRows.Next() {
		var (
			r        domain.ProfitReportRow
			category string
		)
		err := pgRows.Scan(
			&r.AnalyzeTime,
			&category,
			&r.Name,
			&r.Tier,
			&r.Price,
			&r.Profit,
			&r.Rate,
			&r.Stock,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Category = domain.ParseCategory(category)
		rows = append(rows, &r)
	}

	if err := pgRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return rows, nil
}
