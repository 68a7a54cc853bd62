// Package cache provides a content-addressed cache store with per-entry TTL,
// access tracking, and type-scoped grouping. It supports multiple backends:
// in-memory, PostgreSQL, and Redis.
//
// Expiry is lazy: no background sweeper runs, an expired entry is removed by
// the read that observes it, and callers may invoke SweepExpired on their own
// schedule to bound growth.
package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Params is the parameter set a cached value is addressed by. Values must be
// JSON-serializable scalars; key order never affects the derived cache key.
type Params map[string]any

// Entry is a stored cache entry with its bookkeeping fields.
type Entry struct {
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	TTL       time.Duration   `json:"ttl"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`

	// Updated on cache hits only.
	AccessCount  int64     `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Expired reports whether the entry is past its expiry at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// TypeStats breaks entry counts down for a single cache type.
// Expired counts entries past their TTL that no read or sweep has removed yet.
type TypeStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// Stats summarizes the whole store, counted against "now" regardless of
// whether a sweep has run.
type Stats struct {
	TotalEntries int                  `json:"total_entries"`
	ByType       map[string]TypeStats `json:"by_type"`
}

// Store is the cache contract. Same (type, params) always addresses the same
// entry; a read of an expired entry deletes it and reports a miss.
type Store interface {
	// Get returns the cached payload, or found=false on a miss.
	Get(ctx context.Context, cacheType string, params Params) (payload json.RawMessage, found bool, err error)

	// Set stores value (serialized to JSON) under the derived key with the
	// given TTL, overwriting any previous entry atomically. A zero or
	// negative TTL produces an entry that is already expired on next read.
	// Returns the derived key.
	Set(ctx context.Context, cacheType string, params Params, value any, ttl time.Duration) (string, error)

	// Delete removes the addressed entry, reporting whether it existed.
	Delete(ctx context.Context, cacheType string, params Params) (bool, error)

	// ClearType removes every entry of the given type, returning the count.
	ClearType(ctx context.Context, cacheType string) (int, error)

	// SweepExpired removes all expired entries, returning the count.
	SweepExpired(ctx context.Context) (int, error)

	// Stats reports totals and the per-type active/expired breakdown.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}
