package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/strategy"
)

var gateNow = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

func newGate() *Gate {
	return &Gate{
		Symbol: config.Symbol{
			Lot:                  0.02,
			StopPoints:           600,
			TakePoints:           600,
			MaxPositions:         3,
			MinDistance:          200,
			ATRCeiling:           5.0,
			CooldownMinutes:      45,
			AveragingIntervalSec: 300,
		},
		Wait:  5 * time.Minute,
		Point: 0.01,
	}
}

func entry(dir ledger.Direction, price float64) Entry {
	return Entry{
		Now:       gateNow,
		Symbol:    "XAUUSD",
		Direction: dir,
		Price:     price,
		ATR:       2.5,
		Balance:   100_000,
	}
}

func openTrade(t *testing.T, led *ledger.Ledger, ticket string, dir ledger.Direction, price float64, at time.Time) {
	t.Helper()
	require.NoError(t, led.Open(ledger.TradeRecord{
		Ticket: ticket, Symbol: "XAUUSD", Direction: dir,
		EntryTime: at, EntryPrice: price,
	}))
}

func closeTrade(t *testing.T, led *ledger.Ledger, ticket string, profit float64, at time.Time) {
	t.Helper()
	_, err := led.Close(ticket, profit, 0, at)
	require.NoError(t, err)
}

func TestGate_AllowsCleanEntry(t *testing.T) {
	t.Parallel()

	d := newGate().Evaluate(entry(ledger.Buy, 2650), ledger.New())
	assert.True(t, d.Allowed)
	assert.Nil(t, d.Violation)
}

func TestGate_Blackout(t *testing.T) {
	t.Parallel()

	g := newGate()
	g.Blackouts = []config.Window{{Start: "09:55", End: "10:05"}}

	d := g.Evaluate(entry(ledger.Buy, 2650), ledger.New())
	assert.False(t, d.Allowed)
	assert.Equal(t, "NEWS_BLACKOUT", d.Violation.Code)
}

func TestGate_ErrorBackoff(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()
	led.Risk("XAUUSD").BackoffUntil = gateNow.Add(time.Minute)

	d := g.Evaluate(entry(ledger.Buy, 2650), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "ERROR_BACKOFF", d.Violation.Code)

	led.Risk("XAUUSD").BackoffUntil = gateNow.Add(-time.Second)
	assert.True(t, g.Evaluate(entry(ledger.Buy, 2650), led).Allowed)
}

func TestGate_TradeSpacing(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()
	led.Risk("XAUUSD").LastTradeAt = gateNow.Add(-2 * time.Minute)

	d := g.Evaluate(entry(ledger.Buy, 2650), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "TRADE_SPACING", d.Violation.Code)

	led.Risk("XAUUSD").LastTradeAt = gateNow.Add(-6 * time.Minute)
	assert.True(t, g.Evaluate(entry(ledger.Buy, 2650), led).Allowed)
}

func TestGate_Cooldown(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()

	// Two consecutive BUY losses, last closed 10 minutes ago.
	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-2*time.Hour))
	openTrade(t, led, "T2", ledger.Buy, 2648, gateNow.Add(-90*time.Minute))
	closeTrade(t, led, "T1", -120, gateNow.Add(-time.Hour))
	closeTrade(t, led, "T2", -120, gateNow.Add(-10*time.Minute))

	d := g.Evaluate(entry(ledger.Buy, 2650), led)
	assert.False(t, d.Allowed)
	require.NotNil(t, d.Violation)
	assert.Equal(t, "COOLDOWN", d.Violation.Code)
	assert.True(t, d.CooldownNotify)
	assert.Equal(t, gateNow.Add(35*time.Minute), d.CooldownResume)

	// Second evaluation of the same window must not notify again.
	d = g.Evaluate(entry(ledger.Buy, 2650), led)
	assert.False(t, d.Allowed)
	assert.False(t, d.CooldownNotify)

	// The opposite direction is unaffected.
	assert.True(t, g.Evaluate(entry(ledger.Sell, 2650), led).Allowed)

	// Once the window elapses the entry is admitted again.
	late := entry(ledger.Buy, 2650)
	late.Now = gateNow.Add(40 * time.Minute)
	assert.True(t, g.Evaluate(late, led).Allowed)
}

func TestGate_CooldownBrokenByWin(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()

	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-3*time.Hour))
	openTrade(t, led, "T2", ledger.Buy, 2648, gateNow.Add(-2*time.Hour))
	openTrade(t, led, "T3", ledger.Buy, 2646, gateNow.Add(-90*time.Minute))
	closeTrade(t, led, "T1", -120, gateNow.Add(-80*time.Minute))
	closeTrade(t, led, "T2", -120, gateNow.Add(-70*time.Minute))
	// A win after the two losses ends the streak.
	closeTrade(t, led, "T3", 60, gateNow.Add(-5*time.Minute))

	assert.True(t, g.Evaluate(entry(ledger.Buy, 2650), led).Allowed)
}

func TestGate_DailyLossCap(t *testing.T) {
	t.Parallel()

	g := newGate()
	g.DailyLossCap = 0.05
	led := ledger.New()

	// 5% of 100k is 5000; one 5000 loss today exhausts it. Mixing in a
	// win changes nothing, losses are counted gross.
	openTrade(t, led, "T1", ledger.Sell, 2650, gateNow.Add(-4*time.Hour))
	closeTrade(t, led, "T1", -5000, gateNow.Add(-3*time.Hour))
	openTrade(t, led, "T2", ledger.Sell, 2650, gateNow.Add(-2*time.Hour))
	closeTrade(t, led, "T2", 8000, gateNow.Add(-time.Hour))

	d := g.Evaluate(entry(ledger.Buy, 2650), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "DAILY_LOSS_CAP", d.Violation.Code)

	// A zero balance disables the guard (no account in replays).
	free := entry(ledger.Buy, 2650)
	free.Balance = 0
	assert.True(t, g.Evaluate(free, led).Allowed)
}

func TestGate_MaxPositions(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()
	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-3*time.Hour))
	openTrade(t, led, "T2", ledger.Sell, 2655, gateNow.Add(-2*time.Hour))
	openTrade(t, led, "T3", ledger.Buy, 2645, gateNow.Add(-time.Hour))

	d := g.Evaluate(entry(ledger.Buy, 2640), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "MAX_POSITIONS", d.Violation.Code)
}

func TestGate_MinDistance(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()
	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-time.Hour))

	// 200 points at 0.01 is a 2.00 floor; 1.50 away is too close.
	d := g.Evaluate(entry(ledger.Buy, 2648.50), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "MIN_DISTANCE", d.Violation.Code)

	// 2.50 away is far enough.
	assert.True(t, g.Evaluate(entry(ledger.Buy, 2647.50), led).Allowed)

	// The guard only applies to same-direction adds.
	assert.True(t, g.Evaluate(entry(ledger.Sell, 2649.50), led).Allowed)
}

func TestGate_AveragingRecheck(t *testing.T) {
	t.Parallel()

	g := newGate()
	led := ledger.New()
	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-time.Hour))

	// The tightened classifier no longer confirms the direction.
	g.Reclassify = func(sameDir int) strategy.Signal {
		assert.Equal(t, 1, sameDir)
		return strategy.Wait
	}
	d := g.Evaluate(entry(ledger.Buy, 2645), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "AVERAGING_RECHECK", d.Violation.Code)

	g.Reclassify = func(int) strategy.Signal { return strategy.Long }
	assert.True(t, g.Evaluate(entry(ledger.Buy, 2645), led).Allowed)
}

func TestGate_AveragingInterval(t *testing.T) {
	t.Parallel()

	g := newGate()
	g.Reclassify = func(int) strategy.Signal { return strategy.Long }
	led := ledger.New()
	openTrade(t, led, "T1", ledger.Buy, 2650, gateNow.Add(-time.Hour))
	led.Risk("XAUUSD").NoteAveraging(ledger.Buy, gateNow.Add(-2*time.Minute))

	d := g.Evaluate(entry(ledger.Buy, 2645), led)
	assert.False(t, d.Allowed)
	assert.Equal(t, "AVERAGING_INTERVAL", d.Violation.Code)

	led.Risk("XAUUSD").NoteAveraging(ledger.Buy, gateNow.Add(-6*time.Minute))
	assert.True(t, g.Evaluate(entry(ledger.Buy, 2645), led).Allowed)
}

func TestGate_ATRCeiling(t *testing.T) {
	t.Parallel()

	g := newGate()
	e := entry(ledger.Buy, 2650)
	e.ATR = 6.0

	d := g.Evaluate(e, ledger.New())
	assert.False(t, d.Allowed)
	assert.Equal(t, "ATR_CEILING", d.Violation.Code)
}

func TestGate_GuardOrder(t *testing.T) {
	t.Parallel()

	// With both spacing and ATR violated, the earlier guard reports.
	g := newGate()
	led := ledger.New()
	led.Risk("XAUUSD").LastTradeAt = gateNow.Add(-time.Minute)

	e := entry(ledger.Buy, 2650)
	e.ATR = 6.0
	d := g.Evaluate(e, led)
	assert.Equal(t, "TRADE_SPACING", d.Violation.Code)
}
