package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/fundlens/fundlens/pkg/errors"
)

// PostgresStore implements Store backed by the cache_entries table.
// Overwrites use an upsert so concurrent writers to the same key settle on
// last-writer-wins without interleaving.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a cache store over an existing database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get retrieves the payload, deleting the entry and reporting a miss when it
// has expired. Hits bump access_count and last_accessed.
func (s *PostgresStore) Get(ctx context.Context, cacheType string, params Params) (json.RawMessage, bool, error) {
	key := Key(cacheType, params)

	var payload []byte
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM cache_entries WHERE cache_key = $1`, key,
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache entry: %w", err)
	}

	if !time.Now().Before(expiresAt) {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE cache_key = $1`, key); err != nil {
			return nil, false, fmt.Errorf("delete expired cache entry: %w", err)
		}
		return nil, false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE cache_entries SET access_count = access_count + 1, last_accessed = now()
		 WHERE cache_key = $1`, key); err != nil {
		return nil, false, fmt.Errorf("update cache access: %w", err)
	}
	return payload, true, nil
}

// Set upserts the entry, recomputing expiry from the database clock.
func (s *PostgresStore) Set(ctx context.Context, cacheType string, params Params, value any, ttl time.Duration) (string, error) {
	key := Key(cacheType, params)

	payload, err := json.Marshal(value)
	if err != nil {
		return "", errors.NewDataIntegrity("cache.set", "payload not serializable", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	query := `
		INSERT INTO cache_entries (cache_key, cache_type, payload, ttl_seconds, created_at, expires_at, access_count)
		VALUES ($1, $2, $3, $4, now(), now() + $4 * interval '1 second', 0)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload      = EXCLUDED.payload,
			ttl_seconds  = EXCLUDED.ttl_seconds,
			expires_at   = EXCLUDED.expires_at,
			access_count = 0,
			last_accessed = NULL`

	if _, err := s.db.ExecContext(ctx, query, key, cacheType, payload, ttl.Seconds()); err != nil {
		return "", fmt.Errorf("upsert cache entry: %w", err)
	}
	return key, nil
}

// Delete removes the addressed entry.
func (s *PostgresStore) Delete(ctx context.Context, cacheType string, params Params) (bool, error) {
	key := Key(cacheType, params)

	res, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = $1`, key)
	if err != nil {
		return false, fmt.Errorf("delete cache entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ClearType removes every entry of the given type.
func (s *PostgresStore) ClearType(ctx context.Context, cacheType string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE cache_type = $1`, cacheType)
	if err != nil {
		return 0, fmt.Errorf("clear cache type: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// SweepExpired removes all expired entries.
func (s *PostgresStore) SweepExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("sweep expired cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats counts active and expired entries per type against the database clock.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cache_type,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE expires_at > now()),
		       COUNT(*) FILTER (WHERE expires_at <= now())
		FROM cache_entries
		GROUP BY cache_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("query cache stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{ByType: make(map[string]TypeStats)}
	for rows.Next() {
		var cacheType string
		var ts TypeStats
		if err := rows.Scan(&cacheType, &ts.Total, &ts.Active, &ts.Expired); err != nil {
			return Stats{}, fmt.Errorf("scan cache stats: %w", err)
		}
		stats.ByType[cacheType] = ts
		stats.TotalEntries += ts.Total
	}
	return stats, rows.Err()
}

// Close is a no-op; the shared database handle is owned by the caller.
func (s *PostgresStore) Close() error {
	return nil
}
