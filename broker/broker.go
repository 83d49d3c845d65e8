// Package broker defines the interface boundary to the trading
// terminal: market data, account state, order placement and position
// management. The live terminal adapter lives outside this repository;
// broker/sim provides a deterministic in-memory implementation for the
// engine and its tests.
package broker

import (
	"context"
	"time"

	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
)

// Account is a snapshot of the trading account.
type Account struct {
	Currency string
	Balance  float64
	Equity   float64 // balance plus unrealized P/L
}

// Position is an open position as the terminal reports it.
type Position struct {
	Ticket     string
	Symbol     string
	Direction  ledger.Direction
	Lot        float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64 // unrealized, swap included
	OpenTime   time.Time
}

// Deal is one execution from the terminal's history, used to settle
// the realized profit of a closed position.
type Deal struct {
	Ticket  string
	Time    time.Time
	Price   float64
	Profit  float64 // profit + swap + commission
	Closing bool    // true for the deal that closed the position
}

// OrderRequest is a market order submission.
type OrderRequest struct {
	Symbol     string
	Direction  ledger.Direction
	Lot        float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string // caller-assigned tag, e.g. "AG:Trend"
}

// OrderResult reports the fill or the rejection.
type OrderResult struct {
	Code   RejectCode
	Ticket string
	Price  float64
}

// Broker is the terminal interface. Implementations must honor the
// context deadline on every call; a failed call for one symbol must be
// reportable without affecting other symbols.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)

	// GetBars returns the last count bars for symbol at the engine's
	// fixed timeframe, oldest first.
	GetBars(ctx context.Context, symbol string, count int) ([]market.Bar, error)

	GetTick(ctx context.Context, symbol string) (market.Tick, error)

	// OpenPositions lists open positions; an empty symbol selects all.
	OpenPositions(ctx context.Context, symbol string) ([]Position, error)

	// HistoryDeals returns the deals for a position identifier.
	HistoryDeals(ctx context.Context, ticket string) ([]Deal, error)

	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)

	// ModifyStops updates a position's stop and target.
	ModifyStops(ctx context.Context, ticket string, stopLoss, takeProfit float64) error

	// ClosePosition closes an open position at market.
	ClosePosition(ctx context.Context, ticket string) (OrderResult, error)

	Shutdown() error
}
