// Package cli implements the demurraged command line.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "demurraged",
	Short:        "Collateral-backed demurrage ledger",
	Long:         "demurraged serves a ledger token whose idle balances decay each period and that is redeemable against a collateral asset.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "demurrage.yaml", "path to the YAML config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(factorCmd)
}
