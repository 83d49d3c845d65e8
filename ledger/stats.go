package ledger

import "fmt"

// Bucket accumulates win/loss counts and realized profit.
type Bucket struct {
	Wins   int
	Losses int
	Profit float64
}

// Trades returns the number of closed trades in the bucket.
func (b Bucket) Trades() int { return b.Wins + b.Losses }

// WinRate returns the win percentage, or "-" semantics (0, false) when
// the bucket is empty.
func (b Bucket) WinRate() (float64, bool) {
	n := b.Trades()
	if n == 0 {
		return 0, false
	}
	return float64(b.Wins) / float64(n) * 100, true
}

// RateString formats the win rate for reports.
func (b Bucket) RateString() string {
	rate, ok := b.WinRate()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%dW/%dL)", rate, b.Wins, b.Losses)
}

// Stats aggregates the closed-trade ledger by symbol and strategy tag.
type Stats struct {
	Total      Bucket
	BySymbol   map[string]Bucket
	ByStrategy map[string]Bucket
}

// Stats computes aggregate statistics over every closed trade.
func (l *Ledger) Stats() Stats {
	st := Stats{
		BySymbol:   make(map[string]Bucket),
		ByStrategy: make(map[string]Bucket),
	}
	for _, r := range l.ClosedRecords("") {
		st.Total.Profit += r.Profit
		sym := st.BySymbol[r.Symbol]
		sym.Profit += r.Profit
		strat := st.ByStrategy[r.Strategy]
		strat.Profit += r.Profit
		if r.Profit > 0 {
			st.Total.Wins++
			sym.Wins++
			strat.Wins++
		} else {
			st.Total.Losses++
			sym.Losses++
			strat.Losses++
		}
		st.BySymbol[r.Symbol] = sym
		st.ByStrategy[r.Strategy] = strat
	}
	return st
}
