package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crospike/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print or scaffold a configuration file",
	Long: `Without flags, print the effective configuration as YAML. With
--init, write the compiled defaults to the given path as a starting point.

Example:
  crospike config --init crospike.yaml`,
	RunE: runConfig,
}

var configInitPath string

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().StringVarP(&configPath, "config", "f", "", "path to config file (YAML or JSON)")
	configCmd.Flags().StringVar(&configInitPath, "init", "", "write the default config to this path and exit")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configInitPath != "" {
		if _, err := os.Stat(configInitPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing file: %s", configInitPath)
		}
		if err := config.Default().SaveToFile(configInitPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", configInitPath)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := yamlBytes(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
