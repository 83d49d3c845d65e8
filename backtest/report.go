package backtest

import (
	"fmt"
	"strings"

	"github.com/antigravity/trader/ledger"
)

// FormatComparison renders a comparison table across variants.
func FormatComparison(results []Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-24s %7s %5s %5s %7s %10s %9s %9s\n",
		"variant", "trades", "wins", "loss", "win%", "pnl", "avg win", "avg loss"))
	b.WriteString(strings.Repeat("-", 82) + "\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%-24s %7d %5d %5d %6.1f%% %+10.0f %+9.0f %+9.0f\n",
			r.Label, r.Trades, r.Wins, r.Losses, r.WinRate, r.PnL, r.AvgWin, r.AvgLoss))
	}
	return b.String()
}

// FormatDays renders per-day results with per-trade detail lines.
func FormatDays(days []DayResult) string {
	var b strings.Builder
	total := 0.0
	for _, d := range days {
		total += d.PnL
		b.WriteString(fmt.Sprintf("[%s] %d trades / %dW %dL / pnl %+.0f / win rate %.1f%%\n",
			d.Day.Format("2006-01-02"), d.Trades, d.Wins, d.Losses, d.PnL, d.WinRate))
		for i, t := range d.Closed {
			marker := "win "
			if t.Result == ledger.Loss {
				marker = "loss"
			}
			b.WriteString(fmt.Sprintf("  %s #%d %s %4s @%.2f -> %.2f %+8.0f\n",
				marker, i+1, t.EntryTime.Format("15:04"), t.Direction, t.EntryPrice, t.ExitPrice, t.Profit))
		}
	}
	b.WriteString(fmt.Sprintf("total pnl: %+.0f\n", total))
	return b.String()
}
