// Package ledger owns the trade records and per-symbol risk state.
// The ledger is the single source of truth for "what happened":
// cooldowns, daily loss and statistics are always derived from the
// ordered record sequence, never from separately mutated counters.
package ledger

import "time"

// Direction of a position.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Sign returns +1 for BUY and -1 for SELL.
func (d Direction) Sign() float64 {
	if d == Sell {
		return -1
	}
	return 1
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// Status of a trade record.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Result of a closed trade. A trade is a WIN iff its profit is
// strictly positive.
type Result string

const (
	Win  Result = "WIN"
	Loss Result = "LOSS"
)

// TradeRecord is one entry of the durable trade ledger. A record is
// created OPEN when an order fills and becomes CLOSED exactly once;
// closed records are never mutated again.
type TradeRecord struct {
	Ticket     string     `json:"ticket"`
	Symbol     string     `json:"symbol"`
	Strategy   string     `json:"strategy"`
	Direction  Direction  `json:"direction"`
	Lot        float64    `json:"lot,omitempty"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss,omitempty"`
	TakeProfit float64    `json:"take_profit,omitempty"`
	Status     Status     `json:"status"`
	Profit     float64    `json:"profit"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
	CloseTime  *time.Time `json:"close_time"`
	Result     Result     `json:"result,omitempty"`
}

// ResultOf classifies a realized profit.
func ResultOf(profit float64) Result {
	if profit > 0 {
		return Win
	}
	return Loss
}
