package backtest

import (
	"time"

	"github.com/antigravity/trader/ledger"
)

// Result summarizes one replay.
type Result struct {
	Label  string
	Symbol string

	Trades  int
	Wins    int
	Losses  int
	WinRate float64
	PnL     float64
	AvgWin  float64
	AvgLoss float64

	// OpenAtEnd counts positions still open when the series ended.
	OpenAtEnd int

	Closed []ledger.TradeRecord
}

// Summarize folds a replay ledger into a Result.
func Summarize(label, symbol string, led *ledger.Ledger) Result {
	res := Result{Label: label, Symbol: symbol}
	res.Closed = led.ClosedRecords(symbol)
	res.OpenAtEnd = len(led.OpenRecords(symbol))

	var winSum, lossSum float64
	for _, t := range res.Closed {
		res.PnL += t.Profit
		if t.Result == ledger.Win {
			res.Wins++
			winSum += t.Profit
		} else {
			res.Losses++
			lossSum += t.Profit
		}
	}
	res.Trades = len(res.Closed)
	if res.Trades > 0 {
		res.WinRate = float64(res.Wins) / float64(res.Trades) * 100
	}
	if res.Wins > 0 {
		res.AvgWin = winSum / float64(res.Wins)
	}
	if res.Losses > 0 {
		res.AvgLoss = lossSum / float64(res.Losses)
	}
	return res
}

// DayResult is a Result restricted to a single calendar day.
type DayResult struct {
	Day time.Time
	Result
}
