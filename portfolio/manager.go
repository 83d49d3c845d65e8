// Package portfolio implements the account-wide exit rules that run
// every tick across all open positions: basket take-profit, break-even
// stop migration and trailing-profit lock-in. Stop/target exits are
// the terminal's job live and the bar-exit rule's job in replay; this
// manager only adjusts or force-closes.
package portfolio

import (
	"context"
	"log/slog"
	"math"

	"github.com/antigravity/trader/broker"
	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
	"github.com/antigravity/trader/notify"
)

// Manager evaluates the portfolio rules against the broker's live
// positions. All state it needs between ticks (peak profit per ticket)
// lives in the ledger's risk state.
type Manager struct {
	Rules  config.Portfolio
	Broker broker.Broker
	Ledger *ledger.Ledger
	Log    *slog.Logger
	Notify notify.Notifier
}

// Tick runs one portfolio pass. Ordering is fixed: if the basket
// take-profit fires, every position is already gone, so break-even and
// trailing are skipped for this tick and the caller must not attempt
// new entries either.
func (m *Manager) Tick(ctx context.Context, balance float64) (basketFired bool) {
	positions, err := m.Broker.OpenPositions(ctx, "")
	if err != nil {
		m.Log.Warn("portfolio: position query failed", "err", err)
		return false
	}
	if len(positions) == 0 {
		return false
	}

	if m.manageBasket(ctx, balance, positions) {
		return true
	}
	m.manageBreakEven(ctx, balance, positions)
	m.manageTrailing(ctx, balance, positions)
	return false
}

// manageBasket closes every open position once their combined
// unrealized profit reaches the configured fraction of balance.
func (m *Manager) manageBasket(ctx context.Context, balance float64, positions []broker.Position) bool {
	ratio := m.Rules.BasketTakeProfit
	if ratio <= 0 || balance <= 0 {
		return false
	}
	total := 0.0
	for _, p := range positions {
		total += p.Profit
	}
	target := balance * ratio
	if total < target {
		return false
	}

	closed := 0
	for _, p := range positions {
		if res, err := m.Broker.ClosePosition(ctx, p.Ticket); err != nil || !res.OK() {
			m.Log.Error("portfolio: basket close failed", "ticket", p.Ticket, "err", err)
			continue
		}
		closed++
	}
	if closed == 0 {
		return false
	}
	m.send(notify.BasketTP(total, target, closed, len(positions)))
	m.Log.Info("basket take profit", "total", total, "target", target, "closed", closed)
	return true
}

// manageBreakEven moves a position's stop to entry plus a small offset
// once its unrealized profit reaches the trigger fraction of balance.
// A stop is never moved backward.
func (m *Manager) manageBreakEven(ctx context.Context, balance float64, positions []broker.Position) {
	trigger := m.Rules.BreakEvenTrigger
	if trigger <= 0 || balance <= 0 {
		return
	}
	for _, p := range positions {
		if p.Profit < balance*trigger {
			continue
		}
		meta := market.Meta(p.Symbol)
		offset := 0.0
		if p.Lot > 0 && meta.ContractSize > 0 {
			offset = balance * m.Rules.BreakEvenOffset / (p.Lot * meta.ContractSize)
		}

		var newStop float64
		if p.Direction == ledger.Buy {
			newStop = roundTo(p.EntryPrice+offset, meta.Digits)
			if p.StopLoss >= newStop {
				continue // already at or beyond break-even
			}
		} else {
			newStop = roundTo(p.EntryPrice-offset, meta.Digits)
			if p.StopLoss != 0 && p.StopLoss <= newStop {
				continue
			}
		}

		if err := m.Broker.ModifyStops(ctx, p.Ticket, newStop, p.TakeProfit); err != nil {
			m.Log.Error("portfolio: break-even modify failed", "ticket", p.Ticket, "err", err)
			continue
		}
		m.send(notify.BreakEven(p.Ticket, p.Symbol, p.Profit, newStop))
		m.Log.Info("break-even move", "ticket", p.Ticket, "symbol", p.Symbol, "stop", newStop)
	}
}

// manageTrailing tracks each position's peak unrealized profit and
// closes it once the giveback from a qualifying peak exceeds the
// configured fraction of balance.
func (m *Manager) manageTrailing(ctx context.Context, balance float64, positions []broker.Position) {
	trigger := m.Rules.TrailTrigger
	if trigger <= 0 || balance <= 0 {
		return
	}
	for _, p := range positions {
		st := m.Ledger.Risk(p.Symbol)
		peak := st.NotePeak(p.Ticket, p.Profit)
		if peak/balance < trigger {
			continue
		}
		if peak-p.Profit < balance*m.Rules.TrailStop {
			continue
		}

		if res, err := m.Broker.ClosePosition(ctx, p.Ticket); err != nil || !res.OK() {
			m.Log.Error("portfolio: trailing close failed", "ticket", p.Ticket, "err", err)
			continue
		}
		st.ClearPeak(p.Ticket)
		m.send(notify.TrailClose(p.Ticket, peak, p.Profit))
		m.Log.Info("trailing close", "ticket", p.Ticket, "peak", peak, "profit", p.Profit)
	}
}

func (m *Manager) send(msg string) {
	if err := m.Notify.Send(msg); err != nil {
		m.Log.Warn("notification failed", "err", err)
	}
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
