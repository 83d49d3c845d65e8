// Package risk implements the entry gate: the ordered guard chain a
// candidate entry must clear before an order is placed. Guards are
// evaluated short-circuit; the first failing guard aborts the entry
// for this tick and is reported as a coded violation.
package risk

import (
	"fmt"
	"time"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/strategy"
)

// Violation identifies the guard that rejected an entry.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the gate verdict for one candidate entry.
type Decision struct {
	Allowed   bool
	Violation *Violation

	// CooldownNotify is set on the first detection of an active cooldown
	// window; the caller owes a one-time notification.
	CooldownNotify bool
	CooldownResume time.Time
}

func deny(code, format string, args ...any) Decision {
	return Decision{Violation: &Violation{Code: code, Msg: fmt.Sprintf(format, args...)}}
}

// Entry describes the candidate the gate evaluates.
type Entry struct {
	Now       time.Time
	Symbol    string
	Direction ledger.Direction
	Price     float64
	ATR       float64

	// Balance feeds the daily loss cap guard; zero disables it (the
	// backtester has no account).
	Balance float64
}

// Gate evaluates entries for one symbol. Reclassify re-runs the signal
// classifier with a tightened same-direction count; when nil the
// averaging re-validation guard is skipped (the reduced backtest gate
// always provides it, live always provides it).
type Gate struct {
	Symbol       config.Symbol
	Wait         time.Duration // minimum inter-trade spacing
	DailyLossCap float64       // fraction of balance, 0 disables
	Blackouts    []config.Window
	Point        float64 // instrument point size

	Reclassify func(sameDir int) strategy.Signal
}

// Evaluate runs the guard chain against the ledger and the symbol's
// risk state. Guard order matters: time guards run before capital
// guards, position guards before the volatility filter.
func (g *Gate) Evaluate(e Entry, led *ledger.Ledger) Decision {
	st := led.Risk(e.Symbol)

	for _, w := range g.Blackouts {
		if w.Contains(e.Now) {
			return deny("NEWS_BLACKOUT", "inside blackout window %s-%s", w.Start, w.End)
		}
	}

	// 1. Error backoff after a rejected order.
	if e.Now.Before(st.BackoffUntil) {
		return deny("ERROR_BACKOFF", "order backoff until %s", st.BackoffUntil.Format("15:04:05"))
	}

	// 2. Minimum inter-trade spacing.
	if g.Wait > 0 && !st.LastTradeAt.IsZero() && e.Now.Sub(st.LastTradeAt) < g.Wait {
		return deny("TRADE_SPACING", "last trade %s ago, need %s",
			e.Now.Sub(st.LastTradeAt).Round(time.Second), g.Wait)
	}

	// 3. Loss-streak cooldown.
	if d, blocked := g.checkCooldown(e, led, st); blocked {
		return d
	}

	// 4. Daily loss cap.
	if g.DailyLossCap > 0 && e.Balance > 0 {
		loss := led.DayRealizedLoss(e.Symbol, e.Now)
		if limit := g.DailyLossCap * e.Balance; loss >= limit {
			return deny("DAILY_LOSS_CAP", "day loss %.0f reached cap %.0f", loss, limit)
		}
	}

	// 5. Position-count ceiling.
	open := led.OpenRecords(e.Symbol)
	if len(open) >= g.Symbol.MaxPositions {
		return deny("MAX_POSITIONS", "open positions %d >= max %d", len(open), g.Symbol.MaxPositions)
	}

	sameDir := led.SameDirectionCount(e.Symbol, e.Direction)

	// 6. Minimum distance from the last same-direction entry.
	if sameDir > 0 {
		if last, ok := led.LastSameDirection(e.Symbol, e.Direction); ok {
			dist := abs(e.Price - last.EntryPrice)
			if floor := g.Symbol.MinDistance * g.Point; dist < floor {
				return deny("MIN_DISTANCE", "distance %.2f below minimum %.2f", dist, floor)
			}
		}
	}

	// 7. Averaging-in re-validation with tightened thresholds.
	if sameDir > 0 && g.Reclassify != nil {
		want := strategy.Long
		if e.Direction == ledger.Sell {
			want = strategy.Short
		}
		if g.Reclassify(sameDir) != want {
			return deny("AVERAGING_RECHECK", "tightened signal no longer %s", e.Direction)
		}
	}

	// 8. Minimum same-direction re-entry interval.
	if sameDir > 0 {
		last := st.LastAveraging(e.Direction)
		if iv := g.Symbol.AveragingInterval(); iv > 0 && !last.IsZero() && e.Now.Sub(last) < iv {
			return deny("AVERAGING_INTERVAL", "last add %s ago, need %s",
				e.Now.Sub(last).Round(time.Second), iv)
		}
	}

	// 9. Volatility ceiling.
	if g.Symbol.ATRCeiling > 0 && e.ATR > g.Symbol.ATRCeiling {
		return deny("ATR_CEILING", "ATR %.2f above ceiling %.2f", e.ATR, g.Symbol.ATRCeiling)
	}

	return Decision{Allowed: true}
}

// checkCooldown blocks entries while the two most recently closed
// trades in the candidate direction were both losses and the cooldown
// window past the last loss has not elapsed. "Last two" is always
// derived from the tail of the closed-trade sequence.
func (g *Gate) checkCooldown(e Entry, led *ledger.Ledger, st *ledger.RiskState) (Decision, bool) {
	cd := g.Symbol.Cooldown()
	if cd <= 0 {
		return Decision{}, false
	}
	last, prev, ok := led.LastTwoClosed(e.Symbol)
	if !ok {
		return Decision{}, false
	}
	streak := last.Direction == e.Direction && last.Profit < 0 &&
		prev.Direction == e.Direction && prev.Profit < 0
	if !streak || last.CloseTime == nil {
		return Decision{}, false
	}

	key := fmt.Sprintf("%s_%s_%s", e.Symbol, e.Direction, last.Ticket)
	resume := last.CloseTime.Add(cd)
	if e.Now.Before(resume) {
		d := deny("COOLDOWN", "two %s losses in a row, resume at %s",
			e.Direction, resume.Format("15:04"))
		d.CooldownResume = resume
		d.CooldownNotify = !st.CooldownNoted(key)
		return d, true
	}
	st.ClearCooldownNote(key)
	return Decision{}, false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
