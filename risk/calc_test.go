package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
)

func TestStops(t *testing.T) {
	t.Parallel()

	cfg := config.Symbol{StopPoints: 600, TakePoints: 600}
	meta := market.Meta("XAUUSD")

	// 600 points at 0.01/point is a 6.00 distance.
	stop, take := Stops(ledger.Buy, 2650.00, cfg, meta)
	assert.Equal(t, 2644.00, stop)
	assert.Equal(t, 2656.00, take)

	stop, take = Stops(ledger.Sell, 2650.00, cfg, meta)
	assert.Equal(t, 2656.00, stop)
	assert.Equal(t, 2644.00, take)
}

func TestStops_RoundedToDigits(t *testing.T) {
	t.Parallel()

	cfg := config.Symbol{StopPoints: 150, TakePoints: 250}
	meta := market.Meta("USDJPY")

	stop, take := Stops(ledger.Buy, 148.1234, cfg, meta)
	assert.Equal(t, 147.973, stop)
	assert.Equal(t, 148.373, take)
}

func TestPointProfit(t *testing.T) {
	t.Parallel()

	meta := market.Meta("XAUUSD")

	// A 6.00 move is 600 points; 0.02 lot doubles the 0.01-lot value.
	assert.InDelta(t, 1200, PointProfit(6.00, 0.02, meta), 1e-9)
	assert.InDelta(t, -600, PointProfit(-6.00, 0.01, meta), 1e-9)
	assert.InDelta(t, 0, PointProfit(0, 0.02, meta), 1e-9)
}

func TestBarExit(t *testing.T) {
	t.Parallel()

	bar := func(low, high float64) market.Bar {
		return market.Bar{Open: (low + high) / 2, High: high, Low: low, Close: (low + high) / 2}
	}

	t.Run("long stop", func(t *testing.T) {
		price, hit := BarExit(ledger.Buy, 2644, 2656, bar(2643, 2650))
		assert.True(t, hit)
		assert.Equal(t, 2644.0, price)
	})

	t.Run("long target", func(t *testing.T) {
		price, hit := BarExit(ledger.Buy, 2644, 2656, bar(2648, 2657))
		assert.True(t, hit)
		assert.Equal(t, 2656.0, price)
	})

	t.Run("long touches both resolves as stop", func(t *testing.T) {
		price, hit := BarExit(ledger.Buy, 2644, 2656, bar(2643, 2657))
		assert.True(t, hit)
		assert.Equal(t, 2644.0, price)
	})

	t.Run("short stop", func(t *testing.T) {
		price, hit := BarExit(ledger.Sell, 2656, 2644, bar(2650, 2657))
		assert.True(t, hit)
		assert.Equal(t, 2656.0, price)
	})

	t.Run("short touches both resolves as stop", func(t *testing.T) {
		price, hit := BarExit(ledger.Sell, 2656, 2644, bar(2643, 2657))
		assert.True(t, hit)
		assert.Equal(t, 2656.0, price)
	})

	t.Run("no touch", func(t *testing.T) {
		_, hit := BarExit(ledger.Buy, 2644, 2656, bar(2648, 2652))
		assert.False(t, hit)
	})

	t.Run("zero levels ignored", func(t *testing.T) {
		_, hit := BarExit(ledger.Buy, 0, 0, bar(0, 99999))
		assert.False(t, hit)
	})
}
