// Package strategy classifies the current indicator state into an
// entry signal. Classification is a pure function of the latest bar,
// its indicator snapshot and the symbol configuration; it never touches
// broker or ledger state, which is what lets the live loop and the
// backtester share it verbatim.
package strategy

import (
	"fmt"
	"math"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/indicators"
	"github.com/antigravity/trader/market"
)

// Signal is the classifier verdict.
type Signal int

const (
	Wait Signal = iota
	Long
	Short
)

func (s Signal) String() string {
	switch s {
	case Long:
		return "BUY"
	case Short:
		return "SELL"
	default:
		return "WAIT"
	}
}

// Tag names the regime a signal came from.
type Tag string

const (
	TagTrend Tag = "Trend"
	TagRange Tag = "Range"
)

// Regime detection constants. The range band is relative to price; the
// slope ceiling is the long-SMA drift ratio below which the trend is
// considered flat.
const (
	rangeBandRatio = 0.0005
	flatSlopeMax   = 0.0003
)

// Decision is the classifier output: the signal, the regime tag and a
// human-readable reason suitable for logs and notifications.
type Decision struct {
	Signal    Signal
	Tag       Tag
	Reason    string
	Emergency bool // trend filter bypassed by an RSI extreme
}

// Classify maps the latest bar and its snapshot to an entry decision.
// sameDir is the number of already-open positions in the candidate
// direction; each one tightens the RSI threshold by the configured
// averaging offset, making a second same-direction entry strictly
// harder to trigger than the first. Any unavailable indicator yields
// Wait.
func Classify(bar market.Bar, snap indicators.Snapshot, cfg config.Symbol, sameDir int) Decision {
	if !snap.Ready() {
		return Decision{Signal: Wait, Reason: "insufficient history"}
	}

	price := bar.Close
	offset := cfg.AveragingRSIOffset * float64(sameDir)

	// Range regime: price hugging the long SMA, low volatility and a
	// flat long SMA. Checked before the trend regimes; first match wins.
	nearLongSMA := math.Abs(price-snap.SMALong) < price*rangeBandRatio
	lowVol := snap.ATR < cfg.RangeATRMax
	flat := snap.SlopeLong < flatSlopeMax
	isRange := nearLongSMA && lowVol && flat

	d := Decision{Signal: Wait}
	switch {
	case isRange:
		if buy := cfg.RSIRangeBuy - offset; snap.RSI <= buy {
			d = Decision{Signal: Long, Tag: TagRange,
				Reason: fmt.Sprintf("range reversal (RSI<=%.0f)", buy)}
		} else if sell := cfg.RSIRangeSell + offset; snap.RSI >= sell {
			d = Decision{Signal: Short, Tag: TagRange,
				Reason: fmt.Sprintf("range reversal (RSI>=%.0f)", sell)}
		}
	case price > snap.SMALong:
		if buy := cfg.RSITrendBuy - offset; snap.RSI <= buy {
			d = Decision{Signal: Long, Tag: TagTrend,
				Reason: fmt.Sprintf("uptrend pullback (RSI<=%.0f)", buy)}
		}
	case price < snap.SMALong:
		if sell := cfg.RSITrendSell + offset; snap.RSI >= sell {
			d = Decision{Signal: Short, Tag: TagTrend,
				Reason: fmt.Sprintf("downtrend rally (RSI>=%.0f)", sell)}
		}
	}

	if cfg.TrendFilter && d.Signal != Wait {
		d = applyTrendFilter(d, price, snap, cfg)
	}
	return d
}

// applyTrendFilter suppresses signals that fight the short SMA unless
// an emergency RSI extreme is configured and met. A zero emergency
// level disables the bypass for that side.
func applyTrendFilter(d Decision, price float64, snap indicators.Snapshot, cfg config.Symbol) Decision {
	switch d.Signal {
	case Long:
		if price >= snap.SMAShort {
			return d
		}
		if cfg.EmergencyRSIBuy > 0 && snap.RSI <= cfg.EmergencyRSIBuy {
			d.Emergency = true
			d.Reason += " [emergency entry]"
			return d
		}
		return Decision{Signal: Wait, Reason: "trend filter: price below short SMA, BUY suppressed"}
	case Short:
		if price <= snap.SMAShort {
			return d
		}
		if cfg.EmergencyRSISell > 0 && snap.RSI >= cfg.EmergencyRSISell {
			d.Emergency = true
			d.Reason += " [emergency entry]"
			return d
		}
		return Decision{Signal: Wait, Reason: "trend filter: price above short SMA, SELL suppressed"}
	}
	return d
}
