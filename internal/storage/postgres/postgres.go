// Package postgres implements the snapshot and report stores on PostgreSQL
// using pgx connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bdo-market-etl/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool. A connection-level failure
// here surfaces as a storage connection error before any table work runs.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, storage.NewError(storage.KindConnection, "parse postgres dsn", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, storage.NewError(storage.KindConnection, "connect to postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storage.NewError(storage.KindConnection, "ping postgres", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ident validates a relation name against the predicate before it may appear
// in query text. Identifiers never come from caller input verbatim.
func ident(name string, allowed func(string) bool) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty table name", storage.ErrInvalidInput)
	}
	if !allowed(name) {
		return "", fmt.Errorf("%w: %q", storage.ErrUnknownTable, name)
	}
	return name, nil
}
