package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crospike",
	Short: "A cross-exchange volatility trading bot for EVM DEX swaps",
	Long: `Crospike watches spot prices across centralized exchanges, detects
short-window volatility spikes, and trades the configured pair on an
on-chain UniswapV2-style router when the spikes line up.

It provides commands for:
  - Running the trading loop against live venues and a chain RPC
  - One-shot signal checks without trading
  - Wallet balance inspection
  - Printing and scaffolding configuration files`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cobra.OnInitialize(func() {
		// Missing .env is fine; the environment may already carry the keys.
		_ = godotenv.Load()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})))
	})
}
