package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Print wallet balances for the configured pair",
	Long: `Connect to the chain RPC and print the wallet's base, quote and
native token balances.

The wallet private key is read from the PRIVATE_KEY environment variable.

Example:
  crospike balances --config crospike.yaml`,
	RunE: runBalances,
}

func init() {
	rootCmd.AddCommand(balancesCmd)

	balancesCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runBalances(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	executor, wallet, err := buildExecutor(ctx, cfg)
	if err != nil {
		return err
	}

	balances, err := executor.WalletBalances(ctx)
	if err != nil {
		return fmt.Errorf("read balances: %w", err)
	}

	fmt.Printf("Wallet: %s\n", wallet.Address().Hex())
	fmt.Printf("  Base:   %.6f  (%s)\n", balances.Base, cfg.Chain.BaseToken)
	fmt.Printf("  Quote:  %.6f  (%s)\n", balances.Quote, cfg.Chain.QuoteToken)
	fmt.Printf("  Native: %.6f\n", balances.Native)
	return nil
}
