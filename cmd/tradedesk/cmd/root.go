package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tradedesk",
	Short: "Chat-commanded trading desk against the Alpaca brokerage",
	Long: `Tradedesk routes trade and reporting commands to a brokerage.

It provides:
  - Market and (unsupported, but validated) limit order routing with a
    bounded fill/cancel lifecycle
  - Running realized/unrealized PnL reconstruction from order history
  - Open-position and order-history reports over daily/weekly/monthly
    windows
  - A SQLite-backed paper broker for trading fake money against real quotes`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); secrets come from the environment or .env")
}
