// Package db provides PostgreSQL storage for the candidate score history.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/placement-matcher/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidate_scores (
	id             BIGSERIAL PRIMARY KEY,
	jd_id          TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	score          INTEGER NOT NULL,
	gap            TEXT NOT NULL DEFAULT '',
	skills         TEXT NOT NULL DEFAULT '',
	experience     TEXT NOT NULL DEFAULT '',
	certifications TEXT NOT NULL DEFAULT '',
	timestamp      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_jd_id ON candidate_scores(jd_id);
`

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
	opts history.Options
}

// Connect establishes a connection pool to the database and ensures the schema exists
func Connect(ctx context.Context, databaseURL string, opts history.Options) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{pool: pool, opts: opts}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the score table and index when missing
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}
