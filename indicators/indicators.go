// Package indicators derives technical indicators from a bar window.
// All functions are pure: given the same bars they return the same
// values, which keeps live polling and backtest replay identical.
package indicators

import (
	"fmt"
	"math"

	"github.com/antigravity/trader/market"
)

// SMA calculates the simple moving average of the last period closes.
func SMA(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}
	return sum / float64(period), nil
}

// RSI calculates the relative strength index over the last period
// close-to-close deltas using a simple rolling mean of gains and
// losses (not Wilder's exponential smoothing). When the average loss
// is zero the ratio is +inf and RSI is defined as 100.
func RSI(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period+1, len(bars))
	}

	var gain, loss float64
	for i := len(bars) - period; i < len(bars); i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// ATR calculates the average true range as a simple rolling mean of
// true range over the last period bars. True range needs the previous
// close, so period+1 bars are required.
func ATR(bars []market.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period+1 {
		return 0, fmt.Errorf("not enough bars: need %d, got %d", period+1, len(bars))
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += trueRange(bars[i], bars[i-1])
	}
	return sum / float64(period), nil
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(cur, prev market.Bar) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// SlopeRatio reports how much the long SMA has moved over the last
// window bars, relative to its current value. It is used to flag flat
// regimes; when fewer than period+window bars exist it returns 0,
// which classifies as flat.
func SlopeRatio(bars []market.Bar, period, window int) float64 {
	if len(bars) < period+window {
		return 0
	}
	now, err := SMA(bars, period)
	if err != nil || now == 0 {
		return 0
	}
	prev, err := SMA(bars[:len(bars)-window], period)
	if err != nil {
		return 0
	}
	return math.Abs(now-prev) / now
}
