package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/antigravity/trader/ledger"
)

// Message builders for the operator-facing notifications. Kept here so
// the engine stays free of formatting noise and tests can assert on
// stable text.

// Entry announces a filled order. averaging is the same-direction
// count before this fill; above zero the entry is an add.
func Entry(symbol, strategyTag string, dir ledger.Direction, lot, price, stop, take float64, averaging int) string {
	label := ""
	if averaging > 0 {
		label = fmt.Sprintf(" [add #%d]", averaging+1)
	}
	return fmt.Sprintf("🔔 **Entry (%s)%s**\nstrategy: %s\ndirection: %s\nlot: %.2f\nprice: %.2f\nSL: %.2f / TP: %.2f",
		symbol, label, strategyTag, dir, lot, price, stop, take)
}

// Close announces a settled trade with the day's running total and the
// win-rate report.
func Close(rec ledger.TradeRecord, dayTotal float64, stats ledger.Stats) string {
	head := fmt.Sprintf("🎉 **Take profit (%s / %s)** (%+.0f)", rec.Symbol, rec.Strategy, rec.Profit)
	if rec.Profit <= 0 {
		head = fmt.Sprintf("💸 **Stop loss (%s / %s)** (%+.0f)", rec.Symbol, rec.Strategy, rec.Profit)
	}
	return fmt.Sprintf("%s\n💰 today: %+.0f\n\n%s", head, dayTotal, WinRates(stats))
}

// Cooldown announces the start of a loss-streak cooldown window.
func Cooldown(symbol string, dir ledger.Direction, resume time.Time) string {
	return fmt.Sprintf("⏸️ **Cooldown (%s)**\ntwo %s losses in a row\n🕐 trading resumes at %s",
		symbol, dir, resume.Format("15:04"))
}

// OrderError announces the first rejection of a failure episode.
func OrderError(symbol, code, reason string, retry time.Duration) string {
	return fmt.Sprintf("🚨 **Order error (%s)**\ncode: %s\nreason: %s\n\nretrying in %s",
		symbol, code, reason, retry)
}

// BasketTP announces an all-position basket close.
func BasketTP(total, target float64, closed, open int) string {
	return fmt.Sprintf("🎯 **Basket take profit**\ncombined profit: %+.0f (target %.0f)\nclosed %d/%d positions",
		total, target, closed, open)
}

// BreakEven announces a stop moved to entry.
func BreakEven(ticket, symbol string, profit, newStop float64) string {
	return fmt.Sprintf("🔒 **Break-even move** (ticket %s)\n%s unrealized: %+.0f\nSL → %.2f",
		ticket, symbol, profit, newStop)
}

// TrailClose announces a trailing-profit lock-in close.
func TrailClose(ticket string, peak, profit float64) string {
	return fmt.Sprintf("📉 **Trailing close** (ticket %s)\npeak profit: %+.0f\nclosed at: %+.0f\nlocked in before a deeper giveback",
		ticket, peak, profit)
}

// DailyReport formats the once-a-day summary.
func DailyReport(day time.Time, total float64, bySymbol map[string]float64, stats ledger.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 **Daily report** (%s)\n", day.Format("2006-01-02"))
	fmt.Fprintf(&b, "💰 today's total: %+.0f\n", total)
	if len(bySymbol) > 0 {
		b.WriteString("breakdown:\n")
		for _, sym := range sortedKeys(bySymbol) {
			fmt.Fprintf(&b, "- %s: %+.0f\n", sym, bySymbol[sym])
		}
	}
	b.WriteString("\n")
	b.WriteString(WinRates(stats))
	return b.String()
}

// KillSwitch announces the equity-floor emergency stop.
func KillSwitch(equity, floor float64) string {
	return fmt.Sprintf("🚨 **Kill switch: trading halted**\n💰 equity: %.0f\n⚠️ floor: %.0f\n📉 shortfall: %.0f\n\nNew entries stopped; the bot is shutting down. Restart manually to resume.",
		equity, floor, floor-equity)
}

// WinRates formats the aggregate win-rate report.
func WinRates(stats ledger.Stats) string {
	var b strings.Builder
	b.WriteString("📊 **Win rates**\n")
	fmt.Fprintf(&b, "- total: %s\n", stats.Total.RateString())
	for _, sym := range sortedKeys(stats.BySymbol) {
		bucket := stats.BySymbol[sym]
		if bucket.Trades() > 0 {
			fmt.Fprintf(&b, "- %s: %s\n", sym, bucket.RateString())
		}
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
