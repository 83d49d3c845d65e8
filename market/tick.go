package market

import "time"

// Tick is a single bid/ask quote for an instrument.
type Tick struct {
	Symbol string
	Time   time.Time
	Bid    float64
	Ask    float64
}

// Mid returns the quote midpoint.
func (t Tick) Mid() float64 {
	return (t.Bid + t.Ask) / 2
}

// Spread returns the ask-bid spread.
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}
