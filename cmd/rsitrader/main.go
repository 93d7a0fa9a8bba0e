// Command rsitrader runs the RSI threshold-crossing trading bot.
//
// Usage:
//
//	rsitrader setup                   interactive wizard, writes config.yaml
//	rsitrader run --config config.yaml
//	rsitrader state show
//	rsitrader state set --can-buy=false
//
// Required environment variables for live trading (may be placed in .env):
//
//	BINANCE_API_KEY, BINANCE_API_SECRET
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vadiminshakov/rsitrader/config"
)

var (
	version    = "dev"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "rsitrader",
		Short:         "RSI threshold-crossing trading bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to yaml config")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(setupCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rsitrader version %s\n", version)
		},
	}
}
