package market

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/fundlens/fundlens/pkg/types"
)

// CachedProvider decorates a Provider with in-memory caching. Quotes move
// slowly enough that a short TTL saves most upstream calls without serving
// meaningfully stale prices.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

// NewCachedProvider creates a new cached provider.
// defaultTTL is the expiration time for cached quotes.
func NewCachedProvider(inner Provider, defaultTTL time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.New(defaultTTL, defaultTTL*2),
	}
}

// FetchQuote retrieves a quote from the cache or delegates to the inner
// provider. Errors are not cached.
func (p *CachedProvider) FetchQuote(ctx context.Context, fundCode string) (*types.MarketData, error) {
	if val, found := p.cache.Get(fundCode); found {
		if quote, ok := val.(*types.MarketData); ok {
			cp := *quote
			return &cp, nil
		}
	}

	quote, err := p.inner.FetchQuote(ctx, fundCode)
	if err != nil {
		return nil, err
	}

	p.cache.Set(fundCode, quote, cache.DefaultExpiration)
	cp := *quote
	return &cp, nil
}

// Close closes the inner provider.
func (p *CachedProvider) Close() error {
	return p.inner.Close()
}
