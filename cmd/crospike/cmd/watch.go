package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crospike/venue"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live prices for the watched pair",
	Long: `Subscribe to the Binance miniTicker websocket stream for the
configured symbol and print price updates until interrupted. Useful for
eyeballing the feed the trading loop would act on.

Example:
  crospike watch --config crospike.yaml`,
	RunE: runWatch,
}

var watchInterval time.Duration

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
	watchCmd.Flags().DurationVar(&watchInterval, "every", 2*time.Second, "print interval")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Venues.Binance == "" {
		return fmt.Errorf("watch requires a binance symbol in the config")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	ticker := venue.NewTicker([]string{cfg.Venues.Binance})
	go ticker.Run(ctx)

	fmt.Printf("Watching %s (ctrl-c to stop)\n", cfg.Venues.Binance)
	print := time.NewTicker(watchInterval)
	defer print.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-print.C:
			if price, ok := ticker.Price(cfg.Venues.Binance); ok {
				fmt.Printf("%s  %s %.6f\n", time.Now().Format("15:04:05"), cfg.Venues.Binance, price)
			}
		}
	}
}
