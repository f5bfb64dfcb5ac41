// Package journal persists executed swap attempts for later review. The bot
// works fine without one; backends are injected behind the Journal interface.
package journal

import "time"

// Trade outcome labels.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	// StatusPending marks an ambiguous outcome: the transaction was sent but
	// no receipt was observed within the wait bound.
	StatusPending = "pending"
)

// TradeRecord is one swap attempt, automated or manual.
type TradeRecord struct {
	ID          string
	Time        time.Time
	Side        string // "buy" or "sell"
	Pair        string // e.g. "CRO/USDC"
	AmountIn    float64
	ExpectedOut float64
	MinOut      float64
	TxHash      string
	Status      string
	Reason      string // denial or failure detail, empty on success
}

type Journal interface {
	Record(TradeRecord) error
	Close() error
}

// Nop discards records; used when journaling is disabled.
type Nop struct{}

func (Nop) Record(TradeRecord) error { return nil }
func (Nop) Close() error             { return nil }
