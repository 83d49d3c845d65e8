package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/antigravity/trader/journal"
	"github.com/antigravity/trader/notify"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report win rates and P/L from the trade journal",
	Long: `Report reads the SQLite trade journal and prints aggregate win rates.

--day adds that day's per-symbol P/L breakdown; --from/--to list the
closed trades inside the range.

Example:
  antigravity report -d trades.sqlite --day 2026-08-29`,
	RunE: runReport,
}

var (
	repDBPath string
	repDay    string
	repFrom   string
	repTo     string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&repDBPath, "db", "d", "trades.sqlite", "path to SQLite journal DB")
	reportCmd.Flags().StringVar(&repDay, "day", "", "print the P/L breakdown for one day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&repFrom, "from", "", "list closed trades from this day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&repTo, "to", "", "list closed trades up to this day inclusive (YYYY-MM-DD)")
}

func runReport(cmd *cobra.Command, args []string) error {
	j, err := journal.OpenSQLite(repDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	stats, err := j.WinRates()
	if err != nil {
		return fmt.Errorf("win rates: %w", err)
	}
	fmt.Println(notify.WinRates(stats))

	if repDay != "" {
		day, err := time.Parse("2006-01-02", repDay)
		if err != nil {
			return fmt.Errorf("invalid --day: %w", err)
		}
		bySymbol, err := j.DailyPnL(day)
		if err != nil {
			return fmt.Errorf("daily pnl: %w", err)
		}
		var total float64
		for _, v := range bySymbol {
			total += v
		}
		fmt.Printf("P/L for %s: %+.0f\n", repDay, total)
		for sym, v := range bySymbol {
			fmt.Printf("  %s: %+.0f\n", sym, v)
		}
	}

	if repFrom != "" || repTo != "" {
		start, end, err := reportRange()
		if err != nil {
			return err
		}
		recs, err := j.ListClosedBetween(start, end)
		if err != nil {
			return fmt.Errorf("list trades: %w", err)
		}
		fmt.Printf("\n%d closed trades %s .. %s\n", len(recs),
			start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02"))
		for _, r := range recs {
			fmt.Printf("  %s %-7s %-5s %s  entry %.2f  exit %.2f  %+.0f\n",
				r.EntryTime.Format("2006-01-02 15:04"), r.Symbol, r.Direction, r.Strategy,
				r.EntryPrice, r.ExitPrice, r.Profit)
		}
	}
	return nil
}

func reportRange() (start, end time.Time, err error) {
	start = time.Unix(0, 0)
	end = time.Now().AddDate(0, 0, 1)
	if repFrom != "" {
		if start, err = time.Parse("2006-01-02", repFrom); err != nil {
			return start, end, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if repTo != "" {
		var last time.Time
		if last, err = time.Parse("2006-01-02", repTo); err != nil {
			return start, end, fmt.Errorf("invalid --to: %w", err)
		}
		end = last.AddDate(0, 0, 1)
	}
	return start, end, nil
}
