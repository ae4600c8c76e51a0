package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNoPool is returned by repositories used without a database.
	ErrNoPool = errors.New("database pool not initialized")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
)

var (
	pool *pgxpool.Pool
	once sync.Once
)

// Schema creates the tables used by the cache and the portfolio repository.
const Schema = `
CREATE TABLE IF NOT EXISTS projection_runs (
	cache_key   TEXT PRIMARY KEY,
	property_id TEXT,
	run_id      TEXT NOT NULL,
	result      JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS properties (
	id                     TEXT PRIMARY KEY,
	owner_id               TEXT NOT NULL,
	name                   TEXT NOT NULL DEFAULT '',
	current_value          DOUBLE PRECISION NOT NULL,
	purchase_price         DOUBLE PRECISION NOT NULL DEFAULT 0,
	purchase_costs         DOUBLE PRECISION NOT NULL DEFAULT 0,
	cash_invested          DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_annual_income    DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_annual_outgoings DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS loans (
	id                TEXT PRIMARY KEY,
	property_id       TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
	label             TEXT NOT NULL DEFAULT '',
	principal_amount  DOUBLE PRECISION NOT NULL,
	interest_rate_pct DOUBLE PRECISION NOT NULL,
	term_years        INTEGER NOT NULL,
	loan_type         TEXT NOT NULL,
	io_years          INTEGER NOT NULL DEFAULT 0,
	position          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS owner_assumptions (
	owner_id              TEXT PRIMARY KEY,
	rent_growth_pct       DOUBLE PRECISION NOT NULL DEFAULT 0,
	capital_growth_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
	inflation_rate_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
	tax_rate_pct          DOUBLE PRECISION NOT NULL DEFAULT 0,
	medicare_levy_pct     DOUBLE PRECISION NOT NULL DEFAULT 0,
	vacancy_rate_pct      DOUBLE PRECISION NOT NULL DEFAULT 0,
	pm_fee_rate_pct       DOUBLE PRECISION NOT NULL DEFAULT 0,
	depreciation_rate_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
	discount_rate_pct     DOUBLE PRECISION NOT NULL DEFAULT 0,
	start_year            INTEGER NOT NULL DEFAULT 0
);
`

// InitDB opens the shared connection pool. Later calls return the first result.
func InitDB(ctx context.Context, dbURL string) error {
	var err error
	once.Do(func() {
		if dbURL == "" {
			err = fmt.Errorf("database url not set")
			return
		}

		config, parseErr := pgxpool.ParseConfig(dbURL)
		if parseErr != nil {
			err = fmt.Errorf("failed to parse database config: %w", parseErr)
			return
		}

		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err != nil {
			return
		}
		if err = pool.Ping(ctx); err != nil {
			pool.Close()
			pool = nil
			err = fmt.Errorf("ping database: %w", err)
		}
	})
	return err
}

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, p *pgxpool.Pool) error {
	if p == nil {
		return ErrNoPool
	}
	if _, err := p.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetPool returns the database connection pool, or nil before InitDB succeeds.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close closes the database connection pool
func Close() {
	if pool != nil {
		pool.Close()
	}
}
