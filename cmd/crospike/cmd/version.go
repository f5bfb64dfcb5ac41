package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the crospike CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crospike version %s\n", version)
		fmt.Println("A cross-exchange volatility trading bot for EVM DEX swaps")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
