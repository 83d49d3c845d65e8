package engine

import (
	"context"
	"sort"
	"time"

	"github.com/antigravity/trader/broker"
	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/indicators"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
	"github.com/antigravity/trader/notify"
	"github.com/antigravity/trader/risk"
	"github.com/antigravity/trader/strategy"
)

// barWindow is how many bars are pulled per symbol per tick: the long
// SMA lookback plus a buffer for the slope window and RSI/ATR warmup.
const barWindow = 250

// Tick executes one loop iteration. It returns halt=true when the
// kill switch has tripped and the loop must terminate.
func (e *Engine) Tick(ctx context.Context) (halt bool, err error) {
	now := e.now()

	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	acct, err := e.broker.GetAccount(cctx)
	cancel()
	if err != nil {
		// Data unavailable: skip the whole tick, no escalation.
		e.log.Warn("account query failed, skipping tick", "err", err)
		return false, nil
	}

	// Kill switch: stop entering and terminate, leaving open positions
	// untouched.
	if e.cfg.EquityFloor > 0 && acct.Equity < e.cfg.EquityFloor {
		e.log.Error("equity below safety floor, halting",
			"equity", acct.Equity, "floor", e.cfg.EquityFloor)
		e.send(notify.KillSwitch(acct.Equity, e.cfg.EquityFloor))
		return true, nil
	}

	e.monitorOpenTrades(ctx, now)

	basketFired := e.pm.Tick(ctx, acct.Balance)

	e.maybeDailyReport(now)

	if basketFired {
		// Positions just left the book; no entries this tick.
		return false, nil
	}

	for _, symbol := range e.symbols() {
		e.evaluateSymbol(ctx, symbol, e.cfg.Symbols[symbol], acct, now)
	}
	return false, nil
}

func (e *Engine) symbols() []string {
	out := make([]string, 0, len(e.cfg.Symbols))
	for s := range e.cfg.Symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// monitorOpenTrades reconciles the ledger's OPEN records against the
// terminal's position list. A record whose position is gone was closed
// by the terminal (stop, target or manual); its realized profit comes
// from the closing deals.
func (e *Engine) monitorOpenTrades(ctx context.Context, now time.Time) {
	open := e.led.OpenRecords("")
	if len(open) == 0 {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	positions, err := e.broker.OpenPositions(cctx, "")
	cancel()
	if err != nil {
		e.log.Warn("position query failed", "err", err)
		return
	}
	live := make(map[string]bool, len(positions))
	for _, p := range positions {
		live[p.Ticket] = true
	}

	changed := false
	for _, rec := range open {
		if live[rec.Ticket] {
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, callTimeout)
		deals, err := e.broker.HistoryDeals(cctx, rec.Ticket)
		cancel()
		if err != nil {
			e.log.Warn("deal history query failed", "ticket", rec.Ticket, "err", err)
			continue
		}

		var profit, exitPrice float64
		var closeTime time.Time
		settled := false
		for _, d := range deals {
			if d.Closing {
				profit += d.Profit
				exitPrice = d.Price
				closeTime = d.Time
				settled = true
			}
		}
		if !settled {
			continue
		}
		if closeTime.IsZero() {
			closeTime = now
		}

		closed, err := e.led.Close(rec.Ticket, profit, exitPrice, closeTime)
		if err != nil {
			e.log.Error("ledger close failed", "ticket", rec.Ticket, "err", err)
			continue
		}
		changed = true
		e.log.Info("closure detected", "ticket", closed.Ticket, "symbol", closed.Symbol, "profit", profit)

		if e.jrnl != nil {
			if err := e.jrnl.RecordClosed(closed); err != nil {
				e.log.Warn("journal mirror failed", "ticket", closed.Ticket, "err", err)
			}
		}
		dayTotal, _ := e.led.DailyPnL(closeTime)
		e.send(notify.Close(closed, dayTotal, e.led.Stats()))
	}
	if changed {
		e.persist()
	}
}

// maybeDailyReport sends the previous day's summary exactly once per
// calendar-day rollover.
func (e *Engine) maybeDailyReport(now time.Time) {
	today := truncateDay(now)
	if !today.After(e.lastReportDay) {
		return
	}
	prev := today.AddDate(0, 0, -1)
	total, bySymbol := e.led.DailyPnL(prev)
	e.send(notify.DailyReport(prev, total, bySymbol, e.led.Stats()))
	e.log.Info("daily report sent", "day", prev.Format("2006-01-02"), "total", total)
	e.lastReportDay = today
}

// evaluateSymbol refreshes indicators for one symbol and walks the
// entry path. A failed data fetch skips the symbol for this tick only.
func (e *Engine) evaluateSymbol(ctx context.Context, symbol string, cfg config.Symbol, acct broker.Account, now time.Time) {
	st := e.led.Risk(symbol)
	if st.ErrorNotified && !now.Before(st.BackoffUntil) {
		st.ErrorNotified = false
		e.log.Info("order backoff expired, resuming", "symbol", symbol)
	}

	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	bars, err := e.broker.GetBars(cctx, symbol, barWindow)
	cancel()
	if err != nil || len(bars) < indicators.LongPeriod {
		if err != nil {
			e.log.Warn("bar fetch failed, skipping symbol", "symbol", symbol, "err", err)
		}
		return
	}

	bar := bars[len(bars)-1]
	snap := indicators.Compute(bars)
	d := strategy.Classify(bar, snap, cfg, 0)
	if d.Signal == strategy.Wait {
		return
	}
	e.tryEnter(ctx, symbol, cfg, bar, snap, d, acct, now)
}

func (e *Engine) tryEnter(ctx context.Context, symbol string, cfg config.Symbol, bar market.Bar, snap indicators.Snapshot, d strategy.Decision, acct broker.Account, now time.Time) {
	dir := ledger.Buy
	if d.Signal == strategy.Short {
		dir = ledger.Sell
	}
	meta := market.Meta(symbol)
	st := e.led.Risk(symbol)

	gate := &risk.Gate{
		Symbol:       cfg,
		Wait:         e.cfg.EntryWait(),
		DailyLossCap: e.cfg.Portfolio.DailyLossCap,
		Blackouts:    e.cfg.Blackouts,
		Point:        meta.Point,
		Reclassify: func(sameDir int) strategy.Signal {
			return strategy.Classify(bar, snap, cfg, sameDir).Signal
		},
	}
	verdict := gate.Evaluate(risk.Entry{
		Now:       now,
		Symbol:    symbol,
		Direction: dir,
		Price:     bar.Close,
		ATR:       snap.ATR,
		Balance:   acct.Balance,
	}, e.led)

	if verdict.CooldownNotify {
		e.log.Info("cooldown active", "symbol", symbol, "direction", dir, "resume", verdict.CooldownResume)
		e.send(notify.Cooldown(symbol, dir, verdict.CooldownResume))
	}
	if !verdict.Allowed {
		e.log.Debug("entry rejected", "symbol", symbol, "code", verdict.Violation.Code, "msg", verdict.Violation.Msg)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	tick, err := e.broker.GetTick(cctx, symbol)
	cancel()
	if err != nil {
		e.log.Warn("tick fetch failed, skipping entry", "symbol", symbol, "err", err)
		return
	}
	price := tick.Ask
	if dir == ledger.Sell {
		price = tick.Bid
	}
	stop, take := risk.Stops(dir, price, cfg, meta)
	sameDir := e.led.SameDirectionCount(symbol, dir)

	cctx, cancel = context.WithTimeout(ctx, callTimeout)
	res, err := e.broker.SubmitOrder(cctx, broker.OrderRequest{
		Symbol:     symbol,
		Direction:  dir,
		Lot:        cfg.Lot,
		Price:      price,
		StopLoss:   stop,
		TakeProfit: take,
		Comment:    e.cfg.MagicTag + ":" + string(d.Tag),
	})
	cancel()
	if err != nil {
		e.orderFailed(symbol, st, broker.Disconnected, now)
		return
	}
	if !res.OK() {
		e.orderFailed(symbol, st, res.Code, now)
		return
	}

	rec := ledger.TradeRecord{
		Ticket:     res.Ticket,
		Symbol:     symbol,
		Strategy:   string(d.Tag),
		Direction:  dir,
		Lot:        cfg.Lot,
		EntryTime:  now,
		EntryPrice: res.Price,
		StopLoss:   stop,
		TakeProfit: take,
	}
	if err := e.led.Open(rec); err != nil {
		e.log.Error("ledger open failed", "ticket", res.Ticket, "err", err)
		return
	}
	st.LastTradeAt = now
	if sameDir > 0 {
		st.NoteAveraging(dir, now)
	}
	e.persist()

	e.log.Info("entry filled", "symbol", symbol, "direction", dir,
		"price", res.Price, "stop", stop, "take", take, "reason", d.Reason)
	e.send(notify.Entry(symbol, string(d.Tag), dir, cfg.Lot, res.Price, stop, take, sameDir))
}

// orderFailed classifies a rejection, notifies once per failure
// episode and opens the retry backoff window.
func (e *Engine) orderFailed(symbol string, st *ledger.RiskState, code broker.RejectCode, now time.Time) {
	st.BackoffUntil = now.Add(backoffWindow)
	e.log.Error("order failed", "symbol", symbol, "code", code.String(), "reason", code.Reason())
	if !st.ErrorNotified {
		st.ErrorNotified = true
		e.send(notify.OrderError(symbol, code.String(), code.Reason(), backoffWindow))
	}
}
