package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crospike/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print recent journaled trades",
	Long: `Read the configured trade journal and print the most recent trades,
newest first. Only the sqlite backend supports queries.

Example:
  crospike history --config crospike.yaml --limit 10`,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of trades to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Journal.Type != "sqlite" {
		return fmt.Errorf("history requires the sqlite journal, configured type is %q", cfg.Journal.Type)
	}

	jrn, err := journal.NewSQLite(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrn.Close()

	trades, err := jrn.Recent(historyLimit)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded")
		return nil
	}

	fmt.Printf("%-20s %-5s %-10s %12s %12s %-9s %s\n",
		"TIME", "SIDE", "PAIR", "AMOUNT IN", "MIN OUT", "STATUS", "TX")
	for _, t := range trades {
		fmt.Printf("%-20s %-5s %-10s %12.4f %12.4f %-9s %s\n",
			t.Time.Format("2006-01-02 15:04:05"), t.Side, t.Pair,
			t.AmountIn, t.MinOut, t.Status, t.TxHash)
		if t.Reason != "" {
			fmt.Printf("  reason: %s\n", t.Reason)
		}
	}
	return nil
}
