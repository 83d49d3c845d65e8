package backtest

import (
	"fmt"
	"time"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/market"
)

// Variant pairs a label with a symbol configuration, so several
// threshold sets can be replayed over the same data and compared.
type Variant struct {
	Label string
	Cfg   config.Symbol
}

// Runner replays one or more configuration variants over a bar series.
type Runner struct {
	Symbol      string
	WaitSeconds int
	Variants    []Variant
}

// Run replays every variant over the full series.
func (r *Runner) Run(bars []market.Bar) ([]Result, error) {
	if len(r.Variants) == 0 {
		return nil, fmt.Errorf("backtest: no variants configured")
	}
	var out []Result
	for _, v := range r.Variants {
		eng := NewEngine(v.Cfg, Options{
			Symbol:      r.Symbol,
			Label:       v.Label,
			WaitSeconds: r.WaitSeconds,
		})
		if err := eng.Run(bars); err != nil {
			return nil, fmt.Errorf("backtest %q: %w", v.Label, err)
		}
		out = append(out, Summarize(v.Label, r.Symbol, eng.Ledger()))
	}
	return out, nil
}

// RunDays replays a variant day by day with a fresh engine per day,
// restricted to [from, to] (inclusive calendar days; zero values cover
// the whole series). Indicators still warm up on the bars before each
// day's range.
func (r *Runner) RunDays(bars []market.Bar, v Variant, from, to time.Time) ([]DayResult, error) {
	var out []DayResult
	for _, day := range market.Days(bars) {
		if !from.IsZero() && day.Before(truncateDay(from)) {
			continue
		}
		if !to.IsZero() && day.After(truncateDay(to)) {
			continue
		}
		eng := NewEngine(v.Cfg, Options{
			Symbol:      r.Symbol,
			Label:       v.Label,
			WaitSeconds: r.WaitSeconds,
			From:        day,
			To:          day.AddDate(0, 0, 1),
		})
		if err := eng.Run(bars); err != nil {
			return nil, fmt.Errorf("backtest %q day %s: %w", v.Label, day.Format("2006-01-02"), err)
		}
		out = append(out, DayResult{Day: day, Result: Summarize(v.Label, r.Symbol, eng.Ledger())})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
