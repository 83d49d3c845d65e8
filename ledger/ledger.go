package ledger

import (
	"fmt"
	"sort"
	"time"
)

// Ledger is the in-memory set of open positions plus the append-only
// list of closed trades, in close order. All mutations go through it.
// It is owned by the single control loop and needs no locking; a
// parallel implementation must serialize appends (single writer).
type Ledger struct {
	records []TradeRecord
	risk    map[string]*RiskState
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{risk: make(map[string]*RiskState)}
}

// Load replaces the ledger contents with previously persisted records.
// Records from older versions may miss fields added later; symbol
// defaults to the first configured gold symbol era and status to
// CLOSED when a close time is present.
func (l *Ledger) Load(recs []TradeRecord) {
	l.records = make([]TradeRecord, 0, len(recs))
	for _, r := range recs {
		if r.Symbol == "" {
			r.Symbol = "GOLD#"
		}
		if r.Status == "" {
			if r.CloseTime != nil {
				r.Status = StatusClosed
			} else {
				r.Status = StatusOpen
			}
		}
		if r.Status == StatusClosed && r.Result == "" {
			r.Result = ResultOf(r.Profit)
		}
		l.records = append(l.records, r)
	}
}

// Records returns the full ordered ledger for persistence.
func (l *Ledger) Records() []TradeRecord {
	return l.records
}

// Open appends a new OPEN record.
func (l *Ledger) Open(rec TradeRecord) error {
	if rec.Ticket == "" {
		return fmt.Errorf("open: ticket is required")
	}
	if _, ok := l.find(rec.Ticket); ok {
		return fmt.Errorf("open: ticket %s already recorded", rec.Ticket)
	}
	rec.Status = StatusOpen
	rec.CloseTime = nil
	l.records = append(l.records, rec)
	return nil
}

// Close marks an open record closed with its realized profit. The
// record's peak-profit tracking entry is dropped at the same time.
func (l *Ledger) Close(ticket string, profit, exitPrice float64, at time.Time) (TradeRecord, error) {
	i, ok := l.find(ticket)
	if !ok {
		return TradeRecord{}, fmt.Errorf("close: ticket %s not found", ticket)
	}
	r := &l.records[i]
	if r.Status == StatusClosed {
		return *r, fmt.Errorf("close: ticket %s already closed", ticket)
	}
	r.Status = StatusClosed
	r.Profit = profit
	r.ExitPrice = exitPrice
	t := at
	r.CloseTime = &t
	r.Result = ResultOf(profit)

	l.Risk(r.Symbol).ClearPeak(ticket)
	return *r, nil
}

func (l *Ledger) find(ticket string) (int, bool) {
	for i := range l.records {
		if l.records[i].Ticket == ticket {
			return i, true
		}
	}
	return 0, false
}

// OpenRecords returns the open positions for symbol, oldest first.
// An empty symbol selects every symbol.
func (l *Ledger) OpenRecords(symbol string) []TradeRecord {
	var out []TradeRecord
	for _, r := range l.records {
		if r.Status == StatusOpen && (symbol == "" || r.Symbol == symbol) {
			out = append(out, r)
		}
	}
	return out
}

// SameDirectionCount counts open positions for symbol in direction.
func (l *Ledger) SameDirectionCount(symbol string, dir Direction) int {
	n := 0
	for _, r := range l.OpenRecords(symbol) {
		if r.Direction == dir {
			n++
		}
	}
	return n
}

// LastSameDirection returns the most recently opened position for
// symbol in direction, if any.
func (l *Ledger) LastSameDirection(symbol string, dir Direction) (TradeRecord, bool) {
	open := l.OpenRecords(symbol)
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].Direction == dir {
			return open[i], true
		}
	}
	return TradeRecord{}, false
}

// ClosedRecords returns the closed trades for symbol, sorted by close
// time. An empty symbol selects every symbol. Records persist in open
// order, so a sort is needed: a position opened early can outlive one
// opened after it.
func (l *Ledger) ClosedRecords(symbol string) []TradeRecord {
	var out []TradeRecord
	for _, r := range l.records {
		if r.Status == StatusClosed && (symbol == "" || r.Symbol == symbol) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].CloseTime, out[j].CloseTime
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.Before(*tj)
	})
	return out
}

// LastTwoClosed returns the two most recently closed trades for
// symbol, newest first.
func (l *Ledger) LastTwoClosed(symbol string) (last, prev TradeRecord, ok bool) {
	closed := l.ClosedRecords(symbol)
	if len(closed) < 2 {
		return TradeRecord{}, TradeRecord{}, false
	}
	return closed[len(closed)-1], closed[len(closed)-2], true
}

// DayRealizedLoss sums the absolute loss of losing trades for symbol
// closed on the given calendar day. Winning trades do not offset it.
func (l *Ledger) DayRealizedLoss(symbol string, day time.Time) float64 {
	y, m, d := day.Date()
	loss := 0.0
	for _, r := range l.ClosedRecords(symbol) {
		if r.Profit >= 0 || r.CloseTime == nil {
			continue
		}
		cy, cm, cd := r.CloseTime.Date()
		if cy == y && cm == m && cd == d {
			loss += -r.Profit
		}
	}
	return loss
}

// DailyPnL returns the realized profit of trades closed on day, total
// and broken down by symbol.
func (l *Ledger) DailyPnL(day time.Time) (total float64, bySymbol map[string]float64) {
	y, m, d := day.Date()
	bySymbol = make(map[string]float64)
	for _, r := range l.ClosedRecords("") {
		if r.CloseTime == nil {
			continue
		}
		cy, cm, cd := r.CloseTime.Date()
		if cy == y && cm == m && cd == d {
			total += r.Profit
			bySymbol[r.Symbol] += r.Profit
		}
	}
	return total, bySymbol
}
