package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/spf13/cobra"

	"github.com/antigravity/trader/market"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch candle history from Binance into the local CSV format",
	Long: `Fetch downloads klines from Binance and writes them as a bar CSV that
run and backtest can consume.

PAXGUSDT tracks spot gold closely enough for strategy research when no
MetaTrader export is at hand. API credentials are read from
BINANCE_API_KEY and BINANCE_API_SECRET (a .env file works); public
kline data needs no key at all.

Example:
  antigravity fetch -s PAXGUSDT -i 5m -n 1000 -o data/paxg_m5.csv`,
	RunE: runFetch,
}

var (
	fetchSymbol   string
	fetchInterval string
	fetchLimit    int
	fetchOut      string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchSymbol, "symbol", "s", "PAXGUSDT", "Binance symbol")
	fetchCmd.Flags().StringVarP(&fetchInterval, "interval", "i", "5m", "kline interval (1m, 5m, 15m, 1h, ...)")
	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "n", 1000, "number of klines (max 1000)")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "output CSV path (required)")

	fetchCmd.MarkFlagRequired("out")
}

func runFetch(cmd *cobra.Command, args []string) error {
	client := binance.NewClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	klines, err := client.NewKlinesService().
		Symbol(fetchSymbol).
		Interval(fetchInterval).
		Limit(fetchLimit).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("fetch klines: %w", err)
	}

	bars := make([]market.Bar, 0, len(klines))
	for _, k := range klines {
		bar, err := barFromKline(k)
		if err != nil {
			return fmt.Errorf("kline at %d: %w", k.OpenTime, err)
		}
		bars = append(bars, bar)
	}

	if err := market.WriteBarsCSV(fetchOut, bars); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	fmt.Printf("Wrote %d bars to %s\n", len(bars), fetchOut)
	return nil
}

func barFromKline(k *binance.Kline) (market.Bar, error) {
	var bar market.Bar
	var err error
	if bar.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return bar, err
	}
	if bar.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return bar, err
	}
	if bar.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return bar, err
	}
	if bar.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return bar, err
	}
	if bar.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return bar, err
	}
	bar.Time = time.UnixMilli(k.OpenTime).UTC()
	return bar, nil
}
