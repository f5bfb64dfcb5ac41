// Package venue adapts external market-data sources to a common price feed
// contract. A venue failing to answer is never fatal: callers skip it for
// the cycle and continue with the remaining venues.
package venue

import (
	"context"

	"crospike/market"
)

// Source is one market-data venue for the watched pair.
type Source interface {
	Name() string
	// Candles returns up to limit chronological candles for the venue-native
	// symbol at the given interval (e.g. "1m").
	Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
	// LastPrice returns the venue's most recent trade price.
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// Feed binds a source to the symbol it quotes the watched pair under.
// Venues name the same pair differently (CROUSDT vs CRO-USDT).
type Feed struct {
	Source Source
	Symbol string
}
