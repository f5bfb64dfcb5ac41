// Package config holds the bot's configuration documents: the runtime-tunable
// trade settings plus the static venue, chain and journal wiring.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Trade contains the runtime-tunable trading parameters. Keys match the
// persisted default-config document.
type Trade struct {
	TradeAmount       float64 `yaml:"trade_amount" json:"trade_amount"`
	SlippagePct       float64 `yaml:"slippage" json:"slippage"`
	MinPriceChangePct float64 `yaml:"min_price_change" json:"min_price_change"`
	MaxDailyTrades    int     `yaml:"max_daily_trades" json:"max_daily_trades"`
	MaxTradeAmount    float64 `yaml:"max_trade_amount" json:"max_trade_amount"`
	MinBalance        float64 `yaml:"min_balance_threshold" json:"min_balance_threshold"`
	CheckIntervalSec  int     `yaml:"check_interval" json:"check_interval"`
}

// VenueConfig wires the price sources. Symbols differ per venue for the same
// pair (Binance "CROUSDT", KuCoin "CRO-USDT").
type VenueConfig struct {
	Binance     string `yaml:"binance" json:"binance"`
	KuCoin      string `yaml:"kucoin" json:"kucoin"`
	Interval    string `yaml:"interval" json:"interval"`
	CandleLimit int    `yaml:"candle_limit" json:"candle_limit"`
}

// ChainConfig wires the target EVM chain and the token pair traded on it.
type ChainConfig struct {
	RPCURL            string `yaml:"rpc_url" json:"rpc_url"`
	ChainID           int64  `yaml:"chain_id" json:"chain_id"`
	Router            string `yaml:"router" json:"router"`
	BaseToken         string `yaml:"base_token" json:"base_token"`
	QuoteToken        string `yaml:"quote_token" json:"quote_token"`
	ReceiptTimeoutSec int    `yaml:"receipt_timeout" json:"receipt_timeout"`
}

// JournalConfig selects the trade journal backend.
type JournalConfig struct {
	Type string `yaml:"type" json:"type"` // "sqlite", "csv" or "none"
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Config is the complete bootstrap document.
type Config struct {
	Trade   Trade         `yaml:"trade" json:"trade"`
	Venues  VenueConfig   `yaml:"venues" json:"venues"`
	Chain   ChainConfig   `yaml:"chain" json:"chain"`
	Journal JournalConfig `yaml:"journal" json:"journal"`
}

// DefaultTrade returns the compiled-in trade settings.
func DefaultTrade() Trade {
	return Trade{
		TradeAmount:       100,
		SlippagePct:       2.0,
		MinPriceChangePct: 2.0,
		MaxDailyTrades:    10,
		MaxTradeAmount:    1000,
		MinBalance:        50,
		CheckIntervalSec:  60,
	}
}

// Default returns a configuration targeting CRO/USDC on Cronos via the VVS
// router, watching Binance and KuCoin.
func Default() *Config {
	return &Config{
		Trade: DefaultTrade(),
		Venues: VenueConfig{
			Binance:     "CROUSDT",
			KuCoin:      "CRO-USDT",
			Interval:    "1m",
			CandleLimit: 20,
		},
		Chain: ChainConfig{
			RPCURL:            "https://evm.cronos.org",
			ChainID:           25,
			Router:            "0x145863Eb42Cf62847A6Ca784e6416C1682b1b2Ae",
			BaseToken:         "0x5C7F8A570d578ED84E63fdFA7b1eE72dEae1AE23",
			QuoteToken:        "0xc21223249CA28397B4B6541dfFaEcC539BfF0c59",
			ReceiptTimeoutSec: 120,
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "./crospike.db",
		},
	}
}

// CheckInterval returns the signal-check period.
func (t Trade) CheckInterval() time.Duration {
	return time.Duration(t.CheckIntervalSec) * time.Second
}

// Keys accepted by Set, matching the persisted document fields.
const (
	KeyTradeAmount    = "trade_amount"
	KeySlippage       = "slippage"
	KeyMinPriceChange = "min_price_change"
	KeyMaxDailyTrades = "max_daily_trades"
	KeyMaxTradeAmount = "max_trade_amount"
	KeyMinBalance     = "min_balance_threshold"
	KeyCheckInterval  = "check_interval"
)

// Set updates one trade field by key. Unknown keys are rejected.
func (t *Trade) Set(key string, value float64) error {
	switch key {
	case KeyTradeAmount:
		t.TradeAmount = value
	case KeySlippage:
		t.SlippagePct = value
	case KeyMinPriceChange:
		t.MinPriceChangePct = value
	case KeyMaxDailyTrades:
		t.MaxDailyTrades = int(value)
	case KeyMaxTradeAmount:
		t.MaxTradeAmount = value
	case KeyMinBalance:
		t.MinBalance = value
	case KeyCheckInterval:
		t.CheckIntervalSec = int(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// Validate checks the trade settings.
func (t Trade) Validate() error {
	if t.TradeAmount <= 0 {
		return fmt.Errorf("trade_amount must be positive")
	}
	if t.SlippagePct <= 0 || t.SlippagePct > 100 {
		return fmt.Errorf("slippage must be in (0, 100], got %v", t.SlippagePct)
	}
	if t.MinPriceChangePct <= 0 {
		return fmt.Errorf("min_price_change must be positive")
	}
	if t.MaxDailyTrades < 1 {
		return fmt.Errorf("max_daily_trades must be at least 1")
	}
	if t.MaxTradeAmount < t.TradeAmount {
		return fmt.Errorf("max_trade_amount %v below trade_amount %v", t.MaxTradeAmount, t.TradeAmount)
	}
	if t.MinBalance < 0 {
		return fmt.Errorf("min_balance_threshold must not be negative")
	}
	if t.CheckIntervalSec < 1 {
		return fmt.Errorf("check_interval must be at least 1 second")
	}
	return nil
}

// Validate checks the whole bootstrap document.
func (c *Config) Validate() error {
	if err := c.Trade.Validate(); err != nil {
		return err
	}
	if c.Venues.Binance == "" && c.Venues.KuCoin == "" {
		return fmt.Errorf("at least one venue symbol is required")
	}
	if c.Venues.Interval == "" {
		return fmt.Errorf("venues.interval is required")
	}
	if c.Venues.CandleLimit < 2 {
		return fmt.Errorf("venues.candle_limit must be at least 2")
	}
	if c.Chain.RPCURL == "" {
		return fmt.Errorf("chain.rpc_url is required")
	}
	if c.Chain.ChainID <= 0 {
		return fmt.Errorf("chain.chain_id must be positive")
	}
	if c.Chain.Router == "" || c.Chain.BaseToken == "" || c.Chain.QuoteToken == "" {
		return fmt.Errorf("chain router and token addresses are required")
	}
	switch c.Journal.Type {
	case "sqlite", "csv":
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path required for %s journal", c.Journal.Type)
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}
	return nil
}

// LoadFromFile reads a YAML or JSON config. Unknown keys are rejected;
// missing keys keep the compiled defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := decodeStrict(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config as JSON or YAML based on the extension.
func (c *Config) SaveToFile(path string) error {
	data, err := encode(path, c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func isJSONPath(path string) bool {
	return strings.HasSuffix(path, ".json")
}

func decodeStrict(path string, data []byte, v any) error {
	if isJSONPath(path) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}

func encode(path string, v any) ([]byte, error) {
	if isJSONPath(path) {
		return json.MarshalIndent(v, "", "  ")
	}
	return yaml.Marshal(v)
}
