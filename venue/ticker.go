package venue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

const binanceStreamURL = "wss://stream.binance.com:9443/stream?streams="

// Ticker maintains a live last-price cache from the Binance combined
// miniTicker stream. Reads never block on network I/O, which keeps status
// queries independent of venue latency.
type Ticker struct {
	url string

	mu     sync.RWMutex
	prices map[string]float64
}

// NewTicker subscribes to the given venue symbols (e.g. CROUSDT).
func NewTicker(symbols []string) *Ticker {
	streams := make([]string, len(symbols))
	for i, s := range symbols {
		streams[i] = strings.ToLower(s) + "@miniTicker"
	}
	return &Ticker{
		url:    binanceStreamURL + strings.Join(streams, "/"),
		prices: make(map[string]float64),
	}
}

// Run reads the stream until ctx is cancelled, reconnecting after errors.
func (t *Ticker) Run(ctx context.Context) {
	for {
		if err := t.readLoop(ctx); err != nil {
			slog.Warn("ticker stream disconnected", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func (t *Ticker) readLoop(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		t.handle(message)
	}
}

func (t *Ticker) handle(message []byte) {
	data := gjson.GetBytes(message, "data")
	symbol := data.Get("s").String()
	price := data.Get("c").Float()
	if symbol == "" || price == 0 {
		return
	}

	t.mu.Lock()
	t.prices[symbol] = price
	t.mu.Unlock()
}

// Price returns the cached last price for a venue symbol.
func (t *Ticker) Price(symbol string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[symbol]
	return p, ok
}
