package journal

import (
	"time"

	"github.com/antigravity/trader/ledger"
)

// ListClosedBetween returns trades whose close time is within
// [start, end), in close order.
func (j *SQLite) ListClosedBetween(start, end time.Time) ([]ledger.TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT ticket, symbol, strategy, direction, lot, entry_time, entry_price, exit_price, close_time, profit, result
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.TradeRecord
	for rows.Next() {
		var r ledger.TradeRecord
		var dir, result string
		var closeTime time.Time
		if err := rows.Scan(
			&r.Ticket, &r.Symbol, &r.Strategy, &dir, &r.Lot,
			&r.EntryTime, &r.EntryPrice, &r.ExitPrice, &closeTime, &r.Profit, &result,
		); err != nil {
			return nil, err
		}
		r.Direction = ledger.Direction(dir)
		r.Result = ledger.Result(result)
		r.Status = ledger.StatusClosed
		r.CloseTime = &closeTime
		out = append(out, r)
	}
	return out, rows.Err()
}

// DailyPnL returns per-symbol realized profit for the given calendar
// day, in the day's location.
func (j *SQLite) DailyPnL(day time.Time) (map[string]float64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	recs, err := j.ListClosedBetween(start, start.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, r := range recs {
		out[r.Symbol] += r.Profit
	}
	return out, nil
}

// WinRates aggregates the journal into per-symbol and per-strategy
// buckets, same shape as the in-memory ledger statistics.
func (j *SQLite) WinRates() (ledger.Stats, error) {
	st := ledger.Stats{
		BySymbol:   make(map[string]ledger.Bucket),
		ByStrategy: make(map[string]ledger.Bucket),
	}
	rows, err := j.db.Query(`SELECT symbol, strategy, profit FROM trades ORDER BY close_time ASC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var symbol, strat string
		var profit float64
		if err := rows.Scan(&symbol, &strat, &profit); err != nil {
			return st, err
		}
		st.Total.Profit += profit
		sym := st.BySymbol[symbol]
		sym.Profit += profit
		tag := st.ByStrategy[strat]
		tag.Profit += profit
		if profit > 0 {
			st.Total.Wins++
			sym.Wins++
			tag.Wins++
		} else {
			st.Total.Losses++
			sym.Losses++
			tag.Losses++
		}
		st.BySymbol[symbol] = sym
		st.ByStrategy[strat] = tag
	}
	return st, rows.Err()
}
