package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/trader/backtest"
	"github.com/antigravity/trader/market"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay threshold variants over historical bars",
	Long: `Backtest replays the entry and exit rules over a bar CSV and compares
configuration variants side by side.

The baseline variant comes from the config file (or the built-in
defaults). --compare-filter adds a second variant with the trend filter
disabled. --daily prints a per-day breakdown with every trade.

Example:
  antigravity backtest -b data/gold_m5.csv -s XAUUSD --compare-filter`,
	RunE: runBacktest,
}

var (
	btBarsPath   string
	btConfigPath string
	btSymbol     string
	btCompare    bool
	btDaily      bool
	btFrom       string
	btTo         string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btBarsPath, "bars", "b", "", "path to bar CSV (MetaTrader export or time,open,high,low,close[,volume]) (required)")
	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "f", "", "path to config file; defaults apply when omitted")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "XAUUSD", "symbol whose thresholds to replay")
	backtestCmd.Flags().BoolVar(&btCompare, "compare-filter", false, "add a variant with the trend filter disabled")
	backtestCmd.Flags().BoolVar(&btDaily, "daily", false, "print a per-day breakdown of the baseline variant")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day to replay (YYYY-MM-DD, default: first bar)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "last day to replay (YYYY-MM-DD, default: last bar)")

	backtestCmd.MarkFlagRequired("bars")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(btConfigPath)
	if err != nil {
		return err
	}
	symCfg, ok := cfg.Symbols[btSymbol]
	if !ok {
		return fmt.Errorf("symbol %s not present in config", btSymbol)
	}

	bars, err := market.LoadBarsCSV(btBarsPath)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in %s", btBarsPath)
	}

	baseline := backtest.Variant{Label: "baseline", Cfg: symCfg}
	variants := []backtest.Variant{baseline}
	if btCompare {
		noFilter := symCfg
		noFilter.TrendFilter = false
		variants = append(variants, backtest.Variant{Label: "no-filter", Cfg: noFilter})
	}

	runner := &backtest.Runner{
		Symbol:      btSymbol,
		WaitSeconds: cfg.WaitSeconds,
		Variants:    variants,
	}

	fmt.Printf("Replaying %d bars (%s .. %s)\n\n", len(bars),
		bars[0].Time.Format("2006-01-02 15:04"), bars[len(bars)-1].Time.Format("2006-01-02 15:04"))

	results, err := runner.Run(bars)
	if err != nil {
		return err
	}
	fmt.Println(backtest.FormatComparison(results))

	if btDaily {
		from, to, err := dayRange(bars)
		if err != nil {
			return err
		}
		days, err := runner.RunDays(bars, baseline, from, to)
		if err != nil {
			return err
		}
		fmt.Println(backtest.FormatDays(days))
	}
	return nil
}

func dayRange(bars []market.Bar) (from, to time.Time, err error) {
	from = bars[0].Day()
	to = bars[len(bars)-1].Day()
	if btFrom != "" {
		if from, err = time.Parse("2006-01-02", btFrom); err != nil {
			return from, to, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if btTo != "" {
		if to, err = time.Parse("2006-01-02", btTo); err != nil {
			return from, to, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return from, to, nil
}
