package market

import (
	"context"
	"sync"

	"github.com/fundlens/fundlens/pkg/errors"
	"github.com/fundlens/fundlens/pkg/types"
)

// StaticProvider serves quotes from a fixed table. Used in tests and as a
// stand-in when no upstream quote source is configured.
type StaticProvider struct {
	mu     sync.Mutex
	quotes map[string]types.MarketData
	calls  int
}

// NewStaticProvider creates a provider over a fixed quote table.
func NewStaticProvider(quotes map[string]types.MarketData) *StaticProvider {
	if quotes == nil {
		quotes = map[string]types.MarketData{}
	}
	return &StaticProvider{quotes: quotes}
}

// FetchQuote returns the fixed quote for the fund code.
func (p *StaticProvider) FetchQuote(ctx context.Context, fundCode string) (*types.MarketData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	quote, ok := p.quotes[fundCode]
	if !ok {
		return nil, errors.NewNotFound("market.fetch", "no quote for fund")
	}
	cp := quote
	return &cp, nil
}

// Calls reports how many fetches reached this provider.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Close is a no-op for the static provider.
func (p *StaticProvider) Close() error {
	return nil
}
