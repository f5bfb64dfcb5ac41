package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"crospike/signal"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one signal check without trading",
	Long: `Poll the configured venues once, run spike detection and signal
classification, and print the verdict. No chain connection is made and no
trade is executed.

Example:
  crospike check --config crospike.yaml`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	detector := signal.NewDetector()
	spikes := make(map[string]signal.Spike)

	for _, f := range buildFeeds(cfg) {
		candles, err := f.Source.Candles(ctx, f.Symbol, cfg.Venues.Interval, cfg.Venues.CandleLimit)
		if err != nil {
			fmt.Printf("%-10s unavailable: %v\n", f.Source.Name(), err)
			continue
		}

		price := 0.0
		if len(candles) > 0 {
			price = candles[len(candles)-1].Close
		}

		if s, ok := detector.Detect(f.Source.Name(), candles); ok {
			spikes[f.Source.Name()] = s
			fmt.Printf("%-10s %.6f  spike %s %.2f%%\n", f.Source.Name(), price, s.Direction, s.Magnitude)
		} else {
			fmt.Printf("%-10s %.6f  no spike\n", f.Source.Name(), price)
		}
	}

	sig, reason := signal.NewClassifier(cfg.Trade.MinPriceChangePct).Classify(spikes)
	fmt.Println()
	if sig == nil {
		fmt.Printf("Verdict: %s\n", reason)
		return nil
	}

	fmt.Printf("Verdict: %s on %v\n", sig.Type, sig.Venues)
	switch sig.Type {
	case signal.TypeSimultaneous:
		fmt.Printf("  up mean: %.2f%%, down mean: %.2f%%\n", sig.UpMean, sig.DownMean)
	default:
		fmt.Printf("  mean magnitude: %.2f%%\n", sig.Mean)
	}
	return nil
}
