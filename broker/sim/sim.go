// Package sim is an in-memory Broker implementation. It replays a bar
// series one bar per Advance call, fills market orders at the current
// tick, honors stop/target levels with the pessimistic tie-break and
// settles realized profit into the account. It is deterministic and
// exists for the engine, its tests and the demo command.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/antigravity/trader/broker"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
	"github.com/antigravity/trader/risk"
)

type Sim struct {
	account broker.Account

	bars   map[string][]market.Bar
	cursor map[string]int
	ticks  map[string]market.Tick

	positions []*broker.Position
	deals     map[string][]broker.Deal

	nextTicket int
	spread     float64

	// RejectNext forces the next SubmitOrder to fail with the given
	// code. Used to exercise the error-backoff path.
	RejectNext broker.RejectCode

	// Disconnected makes data calls fail, simulating a feed outage.
	Disconnected bool
}

// New creates a sim broker with the given starting balance.
func New(balance float64) *Sim {
	return &Sim{
		account: broker.Account{Currency: "JPY", Balance: balance, Equity: balance},
		bars:    make(map[string][]market.Bar),
		cursor:  make(map[string]int),
		ticks:   make(map[string]market.Tick),
		deals:   make(map[string][]broker.Deal),
		spread:  0.05,
	}
}

// LoadBars installs the historical series for symbol and resets its
// cursor to the first visible window.
func (s *Sim) LoadBars(symbol string, bars []market.Bar) {
	s.bars[symbol] = bars
	s.cursor[symbol] = 0
	if len(bars) > 0 {
		s.setTick(symbol, bars[0])
	}
}

// Advance reveals the next bar for symbol, triggers stop/target exits
// on it and refreshes unrealized profit. It returns false at the end
// of the series.
func (s *Sim) Advance(symbol string) bool {
	series := s.bars[symbol]
	if s.cursor[symbol]+1 >= len(series) {
		return false
	}
	s.cursor[symbol]++
	bar := series[s.cursor[symbol]]
	s.setTick(symbol, bar)

	var kept []*broker.Position
	for _, p := range s.positions {
		if p.Symbol != symbol {
			kept = append(kept, p)
			continue
		}
		if exit, hit := risk.BarExit(p.Direction, p.StopLoss, p.TakeProfit, bar); hit {
			s.settle(p, exit, bar.Time)
			continue
		}
		p.Profit = s.unrealized(p, bar.Close)
		kept = append(kept, p)
	}
	s.positions = kept
	s.refreshEquity()
	return true
}

func (s *Sim) setTick(symbol string, b market.Bar) {
	s.ticks[symbol] = market.Tick{
		Symbol: symbol,
		Time:   b.Time,
		Bid:    b.Close - s.spread/2,
		Ask:    b.Close + s.spread/2,
	}
}

func (s *Sim) unrealized(p *broker.Position, price float64) float64 {
	move := (price - p.EntryPrice) * p.Direction.Sign()
	return risk.PointProfit(move, p.Lot, market.Meta(p.Symbol))
}

func (s *Sim) settle(p *broker.Position, exitPrice float64, at time.Time) {
	move := (exitPrice - p.EntryPrice) * p.Direction.Sign()
	profit := risk.PointProfit(move, p.Lot, market.Meta(p.Symbol))
	s.account.Balance += profit
	s.deals[p.Ticket] = append(s.deals[p.Ticket], broker.Deal{
		Ticket: p.Ticket, Time: at, Price: exitPrice, Profit: profit, Closing: true,
	})
}

func (s *Sim) refreshEquity() {
	eq := s.account.Balance
	for _, p := range s.positions {
		eq += p.Profit
	}
	s.account.Equity = eq
}

func (s *Sim) GetAccount(ctx context.Context) (broker.Account, error) {
	return s.account, nil
}

func (s *Sim) GetBars(ctx context.Context, symbol string, count int) ([]market.Bar, error) {
	if s.Disconnected {
		return nil, fmt.Errorf("sim: feed disconnected")
	}
	series, ok := s.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("sim: no bars for %s", symbol)
	}
	end := s.cursor[symbol] + 1
	start := end - count
	if start < 0 {
		start = 0
	}
	out := make([]market.Bar, end-start)
	copy(out, series[start:end])
	return out, nil
}

func (s *Sim) GetTick(ctx context.Context, symbol string) (market.Tick, error) {
	if s.Disconnected {
		return market.Tick{}, fmt.Errorf("sim: feed disconnected")
	}
	t, ok := s.ticks[symbol]
	if !ok {
		return market.Tick{}, fmt.Errorf("sim: no tick for %s", symbol)
	}
	return t, nil
}

func (s *Sim) OpenPositions(ctx context.Context, symbol string) ([]broker.Position, error) {
	var out []broker.Position
	for _, p := range s.positions {
		if symbol == "" || p.Symbol == symbol {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *Sim) HistoryDeals(ctx context.Context, ticket string) ([]broker.Deal, error) {
	return s.deals[ticket], nil
}

func (s *Sim) SubmitOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderResult, error) {
	if s.RejectNext != 0 {
		code := s.RejectNext
		s.RejectNext = 0
		return broker.OrderResult{Code: code}, nil
	}
	tick, ok := s.ticks[req.Symbol]
	if !ok {
		return broker.OrderResult{Code: broker.Disconnected}, nil
	}
	price := tick.Ask
	if req.Direction == ledger.Sell {
		price = tick.Bid
	}
	s.nextTicket++
	ticket := fmt.Sprintf("%d", 100000+s.nextTicket)
	s.positions = append(s.positions, &broker.Position{
		Ticket:     ticket,
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Lot:        req.Lot,
		EntryPrice: price,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenTime:   tick.Time,
	})
	return broker.OrderResult{Code: broker.Done, Ticket: ticket, Price: price}, nil
}

func (s *Sim) ModifyStops(ctx context.Context, ticket string, stopLoss, takeProfit float64) error {
	for _, p := range s.positions {
		if p.Ticket == ticket {
			p.StopLoss = stopLoss
			p.TakeProfit = takeProfit
			return nil
		}
	}
	return fmt.Errorf("sim: position %s not found", ticket)
}

func (s *Sim) ClosePosition(ctx context.Context, ticket string) (broker.OrderResult, error) {
	for i, p := range s.positions {
		if p.Ticket != ticket {
			continue
		}
		tick := s.ticks[p.Symbol]
		price := tick.Bid
		if p.Direction == ledger.Sell {
			price = tick.Ask
		}
		s.settle(p, price, tick.Time)
		s.positions = append(s.positions[:i], s.positions[i+1:]...)
		s.refreshEquity()
		return broker.OrderResult{Code: broker.Done, Ticket: ticket, Price: price}, nil
	}
	return broker.OrderResult{Code: broker.Rejected}, fmt.Errorf("sim: position %s not found", ticket)
}

func (s *Sim) Shutdown() error { return nil }
