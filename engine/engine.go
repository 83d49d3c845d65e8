// Package engine runs the live control loop: one tick per poll
// interval handles every symbol and every open position serially.
// The loop owns the ledger and all risk state; nothing else mutates
// them, so no locking is needed.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/antigravity/trader/broker"
	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/journal"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/notify"
	"github.com/antigravity/trader/pkg/id"
	"github.com/antigravity/trader/portfolio"
)

// callTimeout bounds every outbound broker and notification call so a
// stalled terminal can never freeze the tick.
const callTimeout = 5 * time.Second

// backoffWindow is how long order submission pauses for a symbol after
// a rejection.
const backoffWindow = 5 * time.Minute

// Engine is the live trading loop.
type Engine struct {
	cfg    *config.Config
	broker broker.Broker
	led    *ledger.Ledger
	store  *journal.Store
	jrnl   *journal.SQLite // nil disables the reporting mirror
	notif  notify.Notifier
	log    *slog.Logger
	pm     *portfolio.Manager

	lastReportDay time.Time

	// now is the tick clock, injectable for tests.
	now func() time.Time
}

// New assembles an engine. jrnl may be nil.
func New(cfg *config.Config, b broker.Broker, store *journal.Store, jrnl *journal.SQLite, n notify.Notifier, log *slog.Logger) *Engine {
	led := ledger.New()
	return &Engine{
		cfg:    cfg,
		broker: b,
		led:    led,
		store:  store,
		jrnl:   jrnl,
		notif:  n,
		log:    log,
		pm: &portfolio.Manager{
			Rules:  cfg.Portfolio,
			Broker: b,
			Ledger: led,
			Log:    log,
			Notify: n,
		},
		now: time.Now,
	}
}

// Ledger exposes the engine's ledger, mainly for tests.
func (e *Engine) Ledger() *ledger.Ledger { return e.led }

// SetClock overrides the engine's time source. Replays drive it from
// bar timestamps so cooldowns and daily rollovers follow market time.
func (e *Engine) SetClock(fn func() time.Time) {
	if fn != nil {
		e.now = fn
	}
}

// Run initializes state, then ticks until the context is canceled, the
// kill switch trips, or a critical fault occurs. The ledger is
// persisted and the broker connection shut down before returning.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.init(ctx); err != nil {
		e.send(fmt.Sprintf("🚨 **Critical fault**\ninitialization failed: %v", err))
		return fmt.Errorf("engine init: %w", err)
	}
	defer e.shutdown()

	e.log.Info("watching started", "symbols", len(e.cfg.Symbols), "interval", e.cfg.PollInterval())

	ticker := time.NewTicker(e.cfg.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info("stop signal received, shutting down")
			return nil
		case <-ticker.C:
			halt, err := e.Tick(ctx)
			if err != nil {
				e.log.Error("tick failed", "err", err)
			}
			if halt {
				return nil
			}
		}
	}
}

// RunReplay drives the loop from an external bar feed instead of the
// wall-clock ticker. advance reveals the next bar and reports false at
// the end of the series. Used by the replay mode of the run command.
func (e *Engine) RunReplay(ctx context.Context, advance func() bool) error {
	if err := e.init(ctx); err != nil {
		return fmt.Errorf("engine init: %w", err)
	}
	defer e.shutdown()

	for advance() {
		if ctx.Err() != nil {
			return nil
		}
		halt, err := e.Tick(ctx)
		if err != nil {
			e.log.Error("tick failed", "err", err)
		}
		if halt {
			return nil
		}
	}
	return nil
}

func (e *Engine) init(ctx context.Context) error {
	e.log = e.log.With("session", id.New())

	recs, err := e.store.Load()
	if err != nil {
		return err
	}
	e.led.Load(recs)

	cctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	acct, err := e.broker.GetAccount(cctx)
	if err != nil {
		return fmt.Errorf("account query: %w", err)
	}

	e.lastReportDay = truncateDay(e.now())
	e.send(e.startupSummary(acct))
	return nil
}

func (e *Engine) shutdown() {
	if err := e.store.Save(e.led.Records()); err != nil {
		e.log.Error("persist ledger on shutdown failed", "err", err)
	}
	if err := e.broker.Shutdown(); err != nil {
		e.log.Error("broker shutdown failed", "err", err)
	}
	e.log.Info("broker connection closed")
}

func (e *Engine) startupSummary(acct broker.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ **Antigravity bot started**\nbalance: %.0f %s\nwatching: ", acct.Balance, acct.Currency)

	syms := make([]string, 0, len(e.cfg.Symbols))
	for s := range e.cfg.Symbols {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	b.WriteString(strings.Join(syms, ", "))
	b.WriteString("\n\n💡 settings:")
	for _, s := range syms {
		c := e.cfg.Symbols[s]
		fmt.Fprintf(&b, "\n- %s: lot=%.2f SL/TP=%.0f/%.0f RSI=%.0f/%.0f",
			s, c.Lot, c.StopPoints, c.TakePoints, c.RSITrendBuy, c.RSITrendSell)
	}
	p := e.cfg.Portfolio
	fmt.Fprintf(&b, "\n🆕 break-even %.1f%% / basket TP %.1f%% / trailing %.1f%%",
		p.BreakEvenTrigger*100, p.BasketTakeProfit*100, p.TrailTrigger*100)
	return b.String()
}

// send delivers a notification, swallowing failures. A missed message
// is logged and never aborts the tick.
func (e *Engine) send(msg string) {
	if err := e.notif.Send(msg); err != nil {
		e.log.Warn("notification failed", "err", err)
	}
}

// persist rewrites the ledger file. A persist failure is critical
// enough to surface in logs but does not stop trading.
func (e *Engine) persist() {
	if err := e.store.Save(e.led.Records()); err != nil {
		e.log.Error("persist ledger failed", "err", err)
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
