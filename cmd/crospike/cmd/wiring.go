package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"crospike/chain"
	"crospike/config"
	"crospike/dex"
	"crospike/journal"
	"crospike/venue"
)

// privateKeyEnv names the environment variable carrying the wallet key. It is
// never read from a config file.
const privateKeyEnv = "PRIVATE_KEY"

var configPath string

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

// buildFeeds wires one feed per configured venue symbol.
func buildFeeds(cfg *config.Config) []venue.Feed {
	var feeds []venue.Feed
	if cfg.Venues.Binance != "" {
		feeds = append(feeds, venue.Feed{Source: venue.NewBinance(), Symbol: cfg.Venues.Binance})
	}
	if cfg.Venues.KuCoin != "" {
		feeds = append(feeds, venue.Feed{Source: venue.NewKuCoin(), Symbol: cfg.Venues.KuCoin})
	}
	return feeds
}

// buildExecutor connects to the chain RPC and returns a swap executor for the
// configured pair. The private key comes from the environment.
func buildExecutor(ctx context.Context, cfg *config.Config) (*dex.Executor, *chain.Wallet, error) {
	key := os.Getenv(privateKeyEnv)
	if key == "" {
		return nil, nil, fmt.Errorf("%s environment variable is required", privateKeyEnv)
	}
	wallet, err := chain.NewWallet(key)
	if err != nil {
		return nil, nil, fmt.Errorf("load wallet: %w", err)
	}

	router := common.HexToAddress(cfg.Chain.Router)
	node, err := chain.Dial(ctx, cfg.Chain.RPCURL, cfg.Chain.ChainID, router, wallet,
		time.Duration(cfg.Chain.ReceiptTimeoutSec)*time.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("connect chain rpc: %w", err)
	}

	pair := dex.Pair{
		Base:  common.HexToAddress(cfg.Chain.BaseToken),
		Quote: common.HexToAddress(cfg.Chain.QuoteToken),
	}
	return dex.New(node, wallet.Address(), router, pair), wallet, nil
}

func yamlBytes(cfg *config.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.Path)
	case "csv":
		return journal.NewCSV(cfg.Journal.Path)
	default:
		return journal.Nop{}, nil
	}
}
