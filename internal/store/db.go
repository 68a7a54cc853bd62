package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id     TEXT PRIMARY KEY,
		total_analyses INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_activity  TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,

	`CREATE TABLE IF NOT EXISTS analyses (
		id                TEXT PRIMARY KEY,
		seq               BIGSERIAL,
		session_id        TEXT NOT NULL,
		fund_code         TEXT NOT NULL,
		fund_name         TEXT,
		financial_metrics JSONB,
		market_data       JSONB,
		summary           TEXT,
		risk_rating       TEXT,
		recommendation    TEXT,
		embedding         JSONB,
		embedding_model   TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_session ON analyses (session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_embedding_model ON analyses (embedding_model) WHERE embedding IS NOT NULL`,

	`CREATE TABLE IF NOT EXISTS ranking_entries (
		id             BIGSERIAL PRIMARY KEY,
		session_id     TEXT NOT NULL,
		ranking_type   TEXT NOT NULL,
		rank_position  INTEGER NOT NULL,
		score          DOUBLE PRECISION NOT NULL,
		description    TEXT,
		analysis_id    TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
		fund_code      TEXT NOT NULL,
		fund_name      TEXT,
		metric_details JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rankings_session_type ON ranking_entries (session_id, ranking_type)`,

	`CREATE TABLE IF NOT EXISTS cache_entries (
		cache_key     TEXT PRIMARY KEY,
		cache_type    TEXT NOT NULL,
		payload       JSONB NOT NULL,
		ttl_seconds   DOUBLE PRECISION NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at    TIMESTAMPTZ NOT NULL,
		access_count  BIGINT NOT NULL DEFAULT 0,
		last_accessed TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cache_entries_type ON cache_entries (cache_type)`,
	`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries (expires_at)`,
}

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
