package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/fundlens/fundlens/pkg/errors"
)

// MemoryStore implements Store with a mutex-guarded map. Intended for tests
// and single-process deployments; the Postgres store carries the same
// semantics against a shared database.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

// Get retrieves the payload for (cacheType, params). An expired entry is
// deleted as a side effect and reported as a miss; hits bump the access
// counter and timestamp.
func (s *MemoryStore) Get(ctx context.Context, cacheType string, params Params) (json.RawMessage, bool, error) {
	key := Key(cacheType, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	now := s.now()
	if entry.Expired(now) {
		delete(s.entries, key)
		return nil, false, nil
	}

	entry.AccessCount++
	entry.LastAccessed = now
	return entry.Payload, true, nil
}

// Set stores value under the derived key. Overwrites are atomic and always
// recompute expiry from "now", so a key's expires_at never moves backward
// relative to a fresh write.
func (s *MemoryStore) Set(ctx context.Context, cacheType string, params Params, value any, ttl time.Duration) (string, error) {
	key := Key(cacheType, params)

	payload, err := json.Marshal(value)
	if err != nil {
		return "", errors.NewDataIntegrity("cache.set", "payload not serializable", err)
	}
	if ttl < 0 {
		ttl = 0
	}

	now := s.now()
	entry := &Entry{
		Key:       key,
		Type:      cacheType,
		Payload:   payload,
		TTL:       ttl,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	if prev, ok := s.entries[key]; ok {
		entry.CreatedAt = prev.CreatedAt
	}
	s.entries[key] = entry
	s.mu.Unlock()

	return key, nil
}

// Delete removes the addressed entry.
func (s *MemoryStore) Delete(ctx context.Context, cacheType string, params Params) (bool, error) {
	key := Key(cacheType, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// ClearType removes every entry of the given type.
func (s *MemoryStore) ClearType(ctx context.Context, cacheType string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for key, entry := range s.entries {
		if entry.Type == cacheType {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// SweepExpired removes all expired entries.
func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			count++
		}
	}
	return count, nil
}

// Stats counts entries against "now", independent of sweeps.
func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats := Stats{ByType: make(map[string]TypeStats)}
	for _, entry := range s.entries {
		ts := stats.ByType[entry.Type]
		ts.Total++
		if entry.Expired(now) {
			ts.Expired++
		} else {
			ts.Active++
		}
		stats.ByType[entry.Type] = ts
		stats.TotalEntries++
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
