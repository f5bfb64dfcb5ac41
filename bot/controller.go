// Package bot runs the volatility trading loop: poll venues, detect spikes,
// classify, gate, execute. All state commands operate on a live Bot and are
// safe for concurrent use.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"crospike/config"
	"crospike/dex"
	"crospike/journal"
	"crospike/pkg/id"
	"crospike/risk"
	"crospike/signal"
	"crospike/venue"
)

var (
	ErrAlreadyRunning = errors.New("bot is already running")
	ErrNotRunning     = errors.New("bot is not running")
)

// DefaultSellFraction is the share of the base holding sold on a strong
// downward signal.
const DefaultSellFraction = 0.5

// minSellAmount skips dust sells that would not cover gas.
const minSellAmount = 0.001

// Trade sides as journaled.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Swapper executes swaps for the configured pair. Satisfied by dex.Executor.
type Swapper interface {
	BuyBase(ctx context.Context, quoteAmount, slippagePct float64) dex.SwapResult
	SellBase(ctx context.Context, baseAmount, slippagePct float64) dex.SwapResult
	WalletBalances(ctx context.Context) (dex.Balances, error)
}

// Options wires a Bot. Feeds and Swapper are required; everything else has a
// usable default.
type Options struct {
	Feeds   []venue.Feed
	Swapper Swapper
	Journal journal.Journal
	Store   config.Store
	Trade   config.Trade

	// Candle request shape, shared by all feeds.
	Interval    string
	CandleLimit int

	// Pair labels journal rows, e.g. "CRO/USDC".
	Pair string

	Logger *slog.Logger
	Now    func() time.Time
}

// Bot is the trading loop controller. It starts Stopped; Start spawns the
// periodic check loop and Stop tears it down.
type Bot struct {
	feeds       []venue.Feed
	swapper     Swapper
	journal     journal.Journal
	store       config.Store
	detector    *signal.Detector
	interval    string
	candleLimit int
	pair        string
	logger      *slog.Logger
	now         func() time.Time

	// SellFraction may be tuned before Start.
	SellFraction float64

	mu     sync.RWMutex
	state  session
	cancel context.CancelFunc
	done   chan struct{}

	// tradeMu serializes the balance-read, gate, submit critical section so
	// two overlapping cycles cannot double-spend the daily allowance.
	tradeMu sync.Mutex
}

func New(opts Options) (*Bot, error) {
	if len(opts.Feeds) == 0 {
		return nil, errors.New("at least one price feed is required")
	}
	if opts.Swapper == nil {
		return nil, errors.New("swapper is required")
	}
	if opts.Journal == nil {
		opts.Journal = journal.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Interval == "" {
		opts.Interval = "1m"
	}
	if opts.CandleLimit == 0 {
		opts.CandleLimit = 20
	}
	if (opts.Trade == config.Trade{}) {
		opts.Trade = config.DefaultTrade()
	}
	if err := opts.Trade.Validate(); err != nil {
		return nil, fmt.Errorf("trade settings: %w", err)
	}

	return &Bot{
		feeds:        opts.Feeds,
		swapper:      opts.Swapper,
		journal:      opts.Journal,
		store:        opts.Store,
		detector:     signal.NewDetector(),
		interval:     opts.Interval,
		candleLimit:  opts.CandleLimit,
		pair:         opts.Pair,
		logger:       opts.Logger,
		now:          opts.Now,
		SellFraction: DefaultSellFraction,
		state:        session{trade: opts.Trade},
	}, nil
}

// Start transitions the bot to Running and spawns the check loop. Starting a
// running bot is an error; the existing loop keeps its cadence.
func (b *Bot) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.state.running = true
	b.state.log(b.now(), "bot started (interval %s)", b.state.trade.CheckInterval())
	b.logger.Info("bot started", "interval", b.state.trade.CheckInterval())

	go b.loop(ctx, b.done)
	return nil
}

// Stop cancels the check loop and waits for it to drain. Any in-flight trade
// finishes before Stop returns.
func (b *Bot) Stop() error {
	b.mu.Lock()
	if !b.state.running {
		b.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := b.cancel, b.done
	b.state.running = false
	b.state.log(b.now(), "bot stopped")
	b.mu.Unlock()

	cancel()
	<-done
	b.logger.Info("bot stopped")
	return nil
}

func (b *Bot) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	b.mu.RLock()
	interval := b.state.trade.CheckInterval()
	b.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	reset := time.NewTimer(untilMidnight(b.now()))
	defer reset.Stop()

	// First check happens immediately rather than one interval in.
	b.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.runCycle(ctx)
		case <-reset.C:
			b.resetDaily()
			reset.Reset(untilMidnight(b.now()))
		}
	}
}

// untilMidnight returns the duration to the next local midnight.
func untilMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now)
}

// resetDaily zeroes the daily trade counter at midnight.
func (b *Bot) resetDaily() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.tradesToday = 0
	b.state.log(b.now(), "daily trade counter reset")
	b.logger.Info("daily trade counter reset")
}

// runCycle performs one full check: fetch, detect, classify, and trade when
// the gate allows. A panic in a cycle is contained so the loop survives.
func (b *Bot) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("check cycle panicked", "panic", r)
			b.mu.Lock()
			b.state.log(b.now(), "check cycle panicked: %v", r)
			b.mu.Unlock()
		}
	}()

	b.mu.Lock()
	b.state.lastCheck = b.now()
	minChange := b.state.trade.MinPriceChangePct
	b.mu.Unlock()

	sig, reason := b.CheckSignal(ctx)
	if sig == nil {
		b.logger.Debug("no signal", "reason", reason)
		b.mu.Lock()
		b.state.log(b.now(), "check: %s", reason)
		b.mu.Unlock()
		return
	}

	b.logger.Info("signal detected",
		"type", sig.Type, "venues", sig.Venues, "min_change", minChange)
	b.mu.Lock()
	b.state.log(b.now(), "signal: %s on %v", sig.Type, sig.Venues)
	b.mu.Unlock()

	b.actOnSignal(ctx, sig)
}

// CheckSignal polls every feed once and classifies the detected spikes. A
// venue failing to answer is skipped for the cycle, never fatal. The reason
// string is set when no signal is produced.
func (b *Bot) CheckSignal(ctx context.Context) (*signal.Signal, string) {
	b.mu.RLock()
	minChange := b.state.trade.MinPriceChangePct
	b.mu.RUnlock()

	spikes := make(map[string]signal.Spike)
	for _, f := range b.feeds {
		candles, err := f.Source.Candles(ctx, f.Symbol, b.interval, b.candleLimit)
		if err != nil {
			b.logger.Warn("venue unavailable", "venue", f.Source.Name(), "error", err)
			continue
		}
		if s, ok := b.detector.Detect(f.Source.Name(), candles); ok {
			spikes[f.Source.Name()] = s
		}
	}

	return signal.NewClassifier(minChange).Classify(spikes)
}

// actOnSignal routes a classified signal to a trade. The whole decision and
// submission runs under tradeMu so the gate's snapshot stays valid through
// the swap.
func (b *Bot) actOnSignal(ctx context.Context, sig *signal.Signal) {
	b.tradeMu.Lock()
	defer b.tradeMu.Unlock()

	b.mu.RLock()
	trade := b.state.trade
	tradesToday := b.state.tradesToday
	b.mu.RUnlock()

	balances, err := b.swapper.WalletBalances(ctx)
	if err != nil {
		b.logger.Error("balance check failed", "error", err)
		b.mu.Lock()
		b.state.log(b.now(), "trade skipped: balance check failed: %v", err)
		b.mu.Unlock()
		return
	}

	decision := risk.Evaluate(risk.Limits{
		MaxDailyTrades: trade.MaxDailyTrades,
		MinBalance:     trade.MinBalance,
		TradeAmount:    trade.TradeAmount,
	}, risk.Snapshot{
		TradesToday:  tradesToday,
		QuoteBalance: balances.Quote,
	})
	if !decision.Allowed {
		for _, v := range decision.Violations {
			b.logger.Warn("trade denied", "code", v.Code, "detail", v.Msg)
		}
		b.mu.Lock()
		b.state.log(b.now(), "trade denied: %s", decision.Reason())
		b.mu.Unlock()
		return
	}

	switch sig.Type {
	case signal.TypeSimultaneous, signal.TypeStrongUp:
		amount := trade.TradeAmount
		if amount > trade.MaxTradeAmount {
			amount = trade.MaxTradeAmount
		}
		b.executeTrade(ctx, SideBuy, amount, trade.SlippagePct)

	case signal.TypeStrongDown:
		amount := balances.Base * b.SellFraction
		if amount < minSellAmount {
			b.logger.Info("sell skipped, holding below minimum", "base_balance", balances.Base)
			b.mu.Lock()
			b.state.log(b.now(), "sell skipped: base holding %.6f too small", balances.Base)
			b.mu.Unlock()
			return
		}
		b.executeTrade(ctx, SideSell, amount, trade.SlippagePct)
	}
}

// executeTrade submits one swap and records the outcome in the session
// counters and the journal. Caller holds tradeMu.
func (b *Bot) executeTrade(ctx context.Context, side string, amount, slippagePct float64) dex.SwapResult {
	var result dex.SwapResult
	if side == SideBuy {
		result = b.swapper.BuyBase(ctx, amount, slippagePct)
	} else {
		result = b.swapper.SellBase(ctx, amount, slippagePct)
	}

	status := journal.StatusFailed
	switch {
	case result.Success:
		status = journal.StatusSuccess
	case result.Kind == dex.KindReceipt:
		// Sent but unconfirmed: it may still land, so it counts against the
		// daily allowance.
		status = journal.StatusPending
	}

	rec := journal.TradeRecord{
		ID:          id.New(),
		Time:        b.now(),
		Side:        side,
		Pair:        b.pair,
		AmountIn:    result.AmountIn,
		ExpectedOut: result.ExpectedOut,
		MinOut:      result.MinOut,
		TxHash:      result.TxHash,
		Status:      status,
		Reason:      result.Reason(),
	}
	if err := b.journal.Record(rec); err != nil {
		b.logger.Error("journal write failed", "error", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	switch status {
	case journal.StatusSuccess:
		b.state.tradesToday++
		b.state.successfulTrades++
		b.state.log(b.now(), "%s executed: %.4f in, %.4f min out, tx %s",
			side, result.AmountIn, result.MinOut, result.TxHash)
		b.logger.Info("trade executed", "side", side,
			"amount_in", result.AmountIn, "min_out", result.MinOut, "tx", result.TxHash)
	case journal.StatusPending:
		b.state.tradesToday++
		b.state.log(b.now(), "%s unconfirmed: tx %s", side, result.TxHash)
		b.logger.Warn("trade unconfirmed", "side", side, "tx", result.TxHash)
	default:
		b.state.failedTrades++
		b.state.log(b.now(), "%s failed (%s): %s", side, result.Kind, result.Reason())
		b.logger.Error("trade failed", "side", side,
			"kind", result.Kind, "error", result.Err)
	}
	return result
}

// Status returns a point-in-time snapshot of the session.
func (b *Bot) Status() Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.snapshot()
}

// Balances reads the wallet balances.
func (b *Bot) Balances(ctx context.Context) (dex.Balances, error) {
	return b.swapper.WalletBalances(ctx)
}

// ForceCheck runs one check cycle immediately, regardless of the loop state.
func (b *Bot) ForceCheck(ctx context.Context) {
	b.runCycle(ctx)
}

// ManualTrade submits a trade on demand. It goes through the same safety
// gate as automated trades; side is "buy" or "sell".
func (b *Bot) ManualTrade(ctx context.Context, side string) (dex.SwapResult, error) {
	if side != SideBuy && side != SideSell {
		return dex.SwapResult{}, fmt.Errorf("unknown trade side: %q", side)
	}

	b.tradeMu.Lock()
	defer b.tradeMu.Unlock()

	b.mu.RLock()
	trade := b.state.trade
	tradesToday := b.state.tradesToday
	b.mu.RUnlock()

	balances, err := b.swapper.WalletBalances(ctx)
	if err != nil {
		return dex.SwapResult{}, fmt.Errorf("balance check: %w", err)
	}

	decision := risk.Evaluate(risk.Limits{
		MaxDailyTrades: trade.MaxDailyTrades,
		MinBalance:     trade.MinBalance,
		TradeAmount:    trade.TradeAmount,
	}, risk.Snapshot{
		TradesToday:  tradesToday,
		QuoteBalance: balances.Quote,
	})
	if !decision.Allowed {
		for _, v := range decision.Violations {
			b.logger.Warn("manual trade denied", "code", v.Code, "detail", v.Msg)
		}
		b.mu.Lock()
		b.state.log(b.now(), "manual %s denied: %s", side, decision.Reason())
		b.mu.Unlock()
		return dex.SwapResult{}, fmt.Errorf("trade denied: %s", decision.Reason())
	}

	if side == SideBuy {
		amount := trade.TradeAmount
		if amount > trade.MaxTradeAmount {
			amount = trade.MaxTradeAmount
		}
		return b.executeTrade(ctx, SideBuy, amount, trade.SlippagePct), nil
	}

	amount := balances.Base * b.SellFraction
	if amount < minSellAmount {
		return dex.SwapResult{}, fmt.Errorf("base holding %.6f too small to sell", balances.Base)
	}
	return b.executeTrade(ctx, SideSell, amount, trade.SlippagePct), nil
}

// UpdateConfig changes one runtime trade setting. The change is validated
// against the full settings document before it is applied; a running loop
// picks up a new check interval at its next start.
func (b *Bot) UpdateConfig(key string, value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.state.trade
	if err := next.Set(key, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("rejected %s=%v: %w", key, value, err)
	}

	b.state.trade = next
	b.state.log(b.now(), "config updated: %s=%v", key, value)
	b.logger.Info("config updated", "key", key, "value", value)
	return nil
}

// SaveDefault persists the current trade settings as the startup default.
func (b *Bot) SaveDefault() error {
	if b.store == nil {
		return errors.New("no config store wired")
	}
	b.mu.RLock()
	trade := b.state.trade
	b.mu.RUnlock()
	return b.store.Save(trade)
}

// LoadDefault replaces the current trade settings with the saved default, or
// the compiled defaults when nothing has been saved yet.
func (b *Bot) LoadDefault() error {
	trade := config.DefaultTrade()
	if b.store != nil && b.store.Exists() {
		loaded, err := b.store.Load()
		if err != nil {
			return err
		}
		trade = loaded
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.trade = trade
	b.state.log(b.now(), "config reset to defaults")
	return nil
}

// IsDefault reports whether the current settings match the saved default, or
// the compiled defaults when nothing has been saved.
func (b *Bot) IsDefault() bool {
	base := config.DefaultTrade()
	if b.store != nil && b.store.Exists() {
		loaded, err := b.store.Load()
		if err != nil {
			return false
		}
		base = loaded
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state.trade == base
}
