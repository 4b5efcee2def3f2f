package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(currentConfig()); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		return enc.Close()
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "List config files in precedence order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configManager == nil {
			return fmt.Errorf("config not loaded")
		}
		for _, p := range configManager.Paths() {
			state := "missing"
			if _, err := os.Stat(p); err == nil {
				state = "found"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
