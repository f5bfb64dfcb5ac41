package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"crospike/bot"
	"crospike/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	Long: `Start the volatility trading loop: poll the configured venues every
check interval, classify spikes, and trade on-chain when a signal passes
the safety gate. Runs until interrupted.

The wallet private key is read from the PRIVATE_KEY environment variable
(a .env file in the working directory is honored).

Example:
  crospike run --config crospike.yaml`,
	RunE: runRun,
}

var runDefaultsPath string

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().StringVar(&runDefaultsPath, "defaults", "crospike-defaults.yaml",
		"path for the persisted default trade settings")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	executor, wallet, err := buildExecutor(ctx, cfg)
	if err != nil {
		return err
	}

	jrn, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrn.Close()

	store := config.NewFileStore(runDefaultsPath)
	trade := cfg.Trade
	if store.Exists() {
		trade, err = store.Load()
		if err != nil {
			return fmt.Errorf("load default settings: %w", err)
		}
	}

	b, err := bot.New(bot.Options{
		Feeds:       buildFeeds(cfg),
		Swapper:     executor,
		Journal:     jrn,
		Store:       store,
		Trade:       trade,
		Interval:    cfg.Venues.Interval,
		CandleLimit: cfg.Venues.CandleLimit,
		Pair:        "CRO/USDC",
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wallet: %s\n", wallet.Address().Hex())
	fmt.Printf("Chain: %s (id %d)\n", cfg.Chain.RPCURL, cfg.Chain.ChainID)
	fmt.Printf("Check interval: %s\n\n", trade.CheckInterval())

	if err := b.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-stop:
		fmt.Printf("\nReceived %s, shutting down\n", sig)
	case <-ctx.Done():
	}

	if err := b.Stop(); err != nil {
		return err
	}

	status := b.Status()
	fmt.Printf("\nSession summary:\n")
	fmt.Printf("  Trades today: %d\n", status.TradesToday)
	fmt.Printf("  Successful: %d\n", status.SuccessfulTrades)
	fmt.Printf("  Failed: %d\n", status.FailedTrades)
	return nil
}
