package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/fundlens/fundlens/internal/metrics"
)

// InstrumentedStore decorates a Store with Prometheus counters.
// The wrapped store's semantics are unchanged.
type InstrumentedStore struct {
	inner Store
}

// NewInstrumentedStore wraps a store with metrics collection.
func NewInstrumentedStore(inner Store) *InstrumentedStore {
	return &InstrumentedStore{inner: inner}
}

func (s *InstrumentedStore) Get(ctx context.Context, cacheType string, params Params) (json.RawMessage, bool, error) {
	payload, found, err := s.inner.Get(ctx, cacheType, params)
	if err == nil {
		outcome := "miss"
		if found {
			outcome = "hit"
		}
		metrics.CacheRequests.WithLabelValues(cacheType, outcome).Inc()
	}
	return payload, found, err
}

func (s *InstrumentedStore) Set(ctx context.Context, cacheType string, params Params, value any, ttl time.Duration) (string, error) {
	key, err := s.inner.Set(ctx, cacheType, params, value, ttl)
	if err == nil {
		metrics.CacheSets.WithLabelValues(cacheType).Inc()
	}
	return key, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, cacheType string, params Params) (bool, error) {
	return s.inner.Delete(ctx, cacheType, params)
}

func (s *InstrumentedStore) ClearType(ctx context.Context, cacheType string) (int, error) {
	return s.inner.ClearType(ctx, cacheType)
}

func (s *InstrumentedStore) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.inner.SweepExpired(ctx)
	if err == nil && n > 0 {
		metrics.CacheSweptEntries.Add(float64(n))
	}
	return n, err
}

func (s *InstrumentedStore) Stats(ctx context.Context) (Stats, error) {
	return s.inner.Stats(ctx)
}

func (s *InstrumentedStore) Close() error {
	return s.inner.Close()
}
