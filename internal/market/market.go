// Package market provides the market data collaborator boundary.
package market

import (
	"context"

	"github.com/fundlens/fundlens/pkg/types"
)

// Provider fetches live quote data for a fund ticker.
type Provider interface {
	// FetchQuote returns current market data for the fund code.
	FetchQuote(ctx context.Context, fundCode string) (*types.MarketData, error)

	// Close releases resources held by the provider.
	Close() error
}
