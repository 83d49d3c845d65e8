package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
)

func btSymbol() config.Symbol {
	return config.Symbol{
		Lot:                  0.02,
		StopPoints:           600,
		TakePoints:           600,
		MaxPositions:         3,
		MinDistance:          200,
		ATRCeiling:           5.0,
		CooldownMinutes:      45,
		RSITrendBuy:          40,
		RSITrendSell:         60,
		RSIRangeBuy:          37,
		RSIRangeSell:         63,
		AveragingRSIOffset:   5,
		AveragingIntervalSec: 300,
		RangeATRMax:          2.0,
	}
}

// trendSeries climbs 1.00 per bar for 220 bars, then declines 1.00 per
// bar for 20. The decline drags RSI under the buy threshold while price
// is still far above the long SMA, so the replay enters pullback buys
// that subsequently stop out.
func trendSeries() []market.Bar {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 0, 240)
	price := 2000.0
	add := func(p float64) {
		bars = append(bars, market.Bar{
			Time:  start.Add(time.Duration(len(bars)) * 5 * time.Minute),
			Open:  p, High: p + 0.5, Low: p - 0.5, Close: p,
		})
	}
	for i := 0; i < 220; i++ {
		price++
		add(price)
	}
	for i := 0; i < 20; i++ {
		price--
		add(price)
	}
	return bars
}

func TestEngine_TrendPullbackEntriesAndStops(t *testing.T) {
	t.Parallel()

	eng := NewEngine(btSymbol(), Options{Symbol: "XAUUSD", WaitSeconds: 300})
	require.NoError(t, eng.Run(trendSeries()))

	res := Summarize("baseline", "XAUUSD", eng.Ledger())
	require.Equal(t, 3, res.Trades)
	assert.Equal(t, 0, res.Wins)
	assert.Equal(t, 3, res.Losses)
	// The add opened into the slot freed by the first stop-out never
	// reaches its own stop before the series ends.
	assert.Equal(t, 1, res.OpenAtEnd)

	// Every trade is a fixed 600-point stop-out at 0.02 lot.
	for _, tr := range res.Closed {
		assert.Equal(t, ledger.Buy, tr.Direction)
		assert.Equal(t, "Trend", tr.Strategy)
		assert.InDelta(t, -1200, tr.Profit, 1e-6)
		assert.InDelta(t, tr.EntryPrice-6.00, tr.ExitPrice, 1e-9)
	}
	assert.InDelta(t, -3600, res.PnL, 1e-6)

	// Sequential tickets, in entry order.
	assert.Equal(t, "BT-000001", res.Closed[0].Ticket)
	assert.Equal(t, "BT-000002", res.Closed[1].Ticket)
	assert.Equal(t, "BT-000003", res.Closed[2].Ticket)
}

func TestEngine_Deterministic(t *testing.T) {
	t.Parallel()

	bars := trendSeries()

	run := func() Result {
		eng := NewEngine(btSymbol(), Options{Symbol: "XAUUSD", WaitSeconds: 300})
		require.NoError(t, eng.Run(bars))
		return Summarize("baseline", "XAUUSD", eng.Ledger())
	}

	assert.Equal(t, run(), run())
}

func TestEngine_NoEntriesBeforeWarmup(t *testing.T) {
	t.Parallel()

	// Too few bars for the long SMA: nothing can ever trade.
	eng := NewEngine(btSymbol(), Options{Symbol: "XAUUSD", WaitSeconds: 300})
	require.NoError(t, eng.Run(trendSeries()[:150]))

	assert.Empty(t, eng.Ledger().Records())
}

func TestEngine_PessimisticTieBreak(t *testing.T) {
	t.Parallel()

	eng := NewEngine(btSymbol(), Options{Symbol: "XAUUSD"})
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	require.NoError(t, eng.led.Open(ledger.TradeRecord{
		Ticket: "BT-000001", Symbol: "XAUUSD", Direction: ledger.Buy,
		Lot: 0.02, EntryTime: at, EntryPrice: 2650,
		StopLoss: 2644, TakeProfit: 2656,
	}))

	// One bar wide enough to touch both levels resolves as the stop.
	eng.checkExits(market.Bar{
		Time: at.Add(5 * time.Minute),
		Open: 2650, High: 2657, Low: 2643, Close: 2649,
	})

	closed := eng.led.ClosedRecords("XAUUSD")
	require.Len(t, closed, 1)
	assert.Equal(t, 2644.0, closed[0].ExitPrice)
	assert.InDelta(t, -1200, closed[0].Profit, 1e-6)
}

func TestRunner_CompareVariants(t *testing.T) {
	t.Parallel()

	// A monotonic decline bottoms RSI out at exactly 0, so any threshold
	// inside [0,100] is eventually reachable. Below the floor the variant
	// can never enter.
	strict := btSymbol()
	strict.RSITrendBuy = -1

	// At the floor itself an entry still fires: the threshold test is
	// RSI at-or-below, and the decline reaches 0 exactly.
	floor := btSymbol()
	floor.RSITrendBuy = 0

	r := &Runner{
		Symbol:      "XAUUSD",
		WaitSeconds: 300,
		Variants: []Variant{
			{Label: "baseline", Cfg: btSymbol()},
			{Label: "strict", Cfg: strict},
			{Label: "floor", Cfg: floor},
		},
	}
	results, err := r.Run(trendSeries())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, results[0].Trades)
	assert.Equal(t, 0, results[1].Trades)
	assert.Greater(t, results[2].Trades+results[2].OpenAtEnd, 0)

	out := FormatComparison(results)
	assert.Contains(t, out, "baseline")
	assert.Contains(t, out, "strict")
	assert.Contains(t, out, "floor")
}

func TestRunner_NoVariants(t *testing.T) {
	t.Parallel()

	r := &Runner{Symbol: "XAUUSD"}
	_, err := r.Run(trendSeries())
	assert.Error(t, err)
}

func TestRunner_RunDays(t *testing.T) {
	t.Parallel()

	bars := trendSeries()
	r := &Runner{Symbol: "XAUUSD", WaitSeconds: 300}
	v := Variant{Label: "baseline", Cfg: btSymbol()}

	days, err := r.RunDays(bars, v, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 3, days[0].Trades)

	// A range outside the series yields nothing.
	days, err = r.RunDays(bars, v,
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, days)

	out := FormatDays(days)
	assert.Contains(t, out, "total pnl")
}
