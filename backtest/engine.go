// Package backtest replays the indicator, classifier and entry-gate
// rules over a historical bar sequence, producing the same closed
// trade shape as live operation. Replay is strictly deterministic:
// bar timestamps are the only clock, tickets are sequential, and the
// broker-specific guards (error backoff) can never trigger because no
// orders are ever rejected.
package backtest

import (
	"fmt"
	"time"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/indicators"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
	"github.com/antigravity/trader/risk"
	"github.com/antigravity/trader/strategy"
)

// Options bounds and parameterizes one replay.
type Options struct {
	Symbol string
	Label  string // display name for comparison tables

	// WaitSeconds is the minimum inter-trade spacing, matching the live
	// loop's setting.
	WaitSeconds int

	// From/To restrict entries and exits to a sub-range of the series
	// while still warming indicators on the earlier bars. Zero values
	// leave the range unbounded.
	From time.Time
	To   time.Time
}

// Engine replays one configuration over one bar series.
type Engine struct {
	cfg  config.Symbol
	opts Options
	meta market.InstrumentMeta

	led  *ledger.Ledger
	gate *risk.Gate
	seq  int
}

// NewEngine creates a replay engine with a fresh ledger.
func NewEngine(cfg config.Symbol, opts Options) *Engine {
	meta := market.Meta(opts.Symbol)
	led := ledger.New()
	return &Engine{
		cfg:  cfg,
		opts: opts,
		meta: meta,
		led:  led,
		gate: &risk.Gate{
			Symbol: cfg,
			Wait:   time.Duration(opts.WaitSeconds) * time.Second,
			Point:  meta.Point,
		},
	}
}

// Ledger exposes the replay ledger for inspection after Run.
func (e *Engine) Ledger() *ledger.Ledger { return e.led }

// Run replays the bar series. Bars must be ordered oldest-first.
func (e *Engine) Run(bars []market.Bar) error {
	for i, bar := range bars {
		if !e.inRange(bar.Time) {
			continue
		}
		window := bars[:i+1]
		snap := indicators.Compute(window)
		if !snap.SMALongOK {
			continue
		}

		// Exits first: stop before target within the same bar.
		e.checkExits(bar)

		// Then the entry side, with the same classifier and gate the
		// live loop uses.
		d := strategy.Classify(bar, snap, e.cfg, 0)
		if d.Signal == strategy.Wait {
			continue
		}
		e.tryEnter(bar, snap, d)
	}
	return nil
}

func (e *Engine) inRange(t time.Time) bool {
	if !e.opts.From.IsZero() && t.Before(e.opts.From) {
		return false
	}
	if !e.opts.To.IsZero() && !t.Before(e.opts.To) {
		return false
	}
	return true
}

func (e *Engine) checkExits(bar market.Bar) {
	for _, pos := range e.led.OpenRecords(e.opts.Symbol) {
		exit, hit := risk.BarExit(pos.Direction, pos.StopLoss, pos.TakeProfit, bar)
		if !hit {
			continue
		}
		move := (exit - pos.EntryPrice) * pos.Direction.Sign()
		profit := risk.PointProfit(move, pos.Lot, e.meta)
		if _, err := e.led.Close(pos.Ticket, profit, exit, bar.Time); err != nil {
			panic(fmt.Sprintf("backtest: close %s: %v", pos.Ticket, err))
		}
	}
}

func (e *Engine) tryEnter(bar market.Bar, snap indicators.Snapshot, d strategy.Decision) {
	dir := ledger.Buy
	if d.Signal == strategy.Short {
		dir = ledger.Sell
	}

	e.gate.Reclassify = func(sameDir int) strategy.Signal {
		return strategy.Classify(bar, snap, e.cfg, sameDir).Signal
	}
	verdict := e.gate.Evaluate(risk.Entry{
		Now:       bar.Time,
		Symbol:    e.opts.Symbol,
		Direction: dir,
		Price:     bar.Close,
		ATR:       snap.ATR,
	}, e.led)
	if !verdict.Allowed {
		return
	}

	sameDir := e.led.SameDirectionCount(e.opts.Symbol, dir)
	stop, take := risk.Stops(dir, bar.Close, e.cfg, e.meta)
	e.seq++
	rec := ledger.TradeRecord{
		Ticket:     fmt.Sprintf("BT-%06d", e.seq),
		Symbol:     e.opts.Symbol,
		Strategy:   string(d.Tag),
		Direction:  dir,
		Lot:        e.cfg.Lot,
		EntryTime:  bar.Time,
		EntryPrice: bar.Close,
		StopLoss:   stop,
		TakeProfit: take,
	}
	if err := e.led.Open(rec); err != nil {
		panic(fmt.Sprintf("backtest: open %s: %v", rec.Ticket, err))
	}

	st := e.led.Risk(e.opts.Symbol)
	st.LastTradeAt = bar.Time
	if sameDir > 0 {
		st.NoteAveraging(dir, bar.Time)
	}
}
