package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "antigravity",
	Short: "An automated intraday trading bot for gold and FX",
	Long: `Antigravity is an automated intraday trading bot written in Go.

It provides tools for:
  - Running the decision loop against a broker terminal or a bar replay
  - Backtesting threshold variants over historical bar data
  - Reporting win rates and daily P/L from the trade journal
  - Fetching candle history from Binance into the local CSV format
  - Generating and inspecting configuration files`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
