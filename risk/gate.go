// Package risk decides whether a detected signal may be acted on. It is a
// pure decision layer: no I/O, no state, safe to call repeatedly.
package risk

import "fmt"

type Violation struct {
	Code string
	Msg  string
}

// Decision is the gate's verdict. Every limit is evaluated, so a denial can
// carry more than one violation; all of them should be logged to aid
// diagnosis.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Reason returns the first violation's message, or "" when allowed.
func (d Decision) Reason() string {
	if len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Msg
}

// Limits are the configured safety bounds for automated trading.
type Limits struct {
	MaxDailyTrades int
	MinBalance     float64 // quote-token floor that must remain untouched
	TradeAmount    float64 // quote amount of the next trade
}

// Snapshot is the account state the gate evaluates against.
type Snapshot struct {
	TradesToday  int
	QuoteBalance float64
}

// Evaluate checks the daily trade cap and the quote balance floor. It must be
// consulted before submission, never after.
func Evaluate(l Limits, s Snapshot) Decision {
	d := Decision{Allowed: true}

	if s.TradesToday >= l.MaxDailyTrades {
		d.add("DAILY_LIMIT",
			fmt.Sprintf("daily trade limit reached: %d/%d", s.TradesToday, l.MaxDailyTrades))
	}
	if s.QuoteBalance < l.MinBalance {
		d.add("LOW_BALANCE",
			fmt.Sprintf("quote balance %.2f below threshold %.2f", s.QuoteBalance, l.MinBalance))
	}
	if s.QuoteBalance < l.TradeAmount {
		d.add("INSUFFICIENT_FUNDS",
			fmt.Sprintf("quote balance %.2f cannot cover trade of %.2f", s.QuoteBalance, l.TradeAmount))
	}

	return d
}
