package risk

import (
	"math"

	"github.com/antigravity/trader/config"
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
)

// Stops computes the stop-loss and take-profit prices for an entry at
// price, as fixed point-distance offsets per the symbol configuration,
// rounded to the instrument's quoted precision.
func Stops(dir ledger.Direction, price float64, cfg config.Symbol, meta market.InstrumentMeta) (stop, take float64) {
	slDist := cfg.StopPoints * meta.Point
	tpDist := cfg.TakePoints * meta.Point
	if dir == ledger.Buy {
		stop = price - slDist
		take = price + tpDist
	} else {
		stop = price + slDist
		take = price - tpDist
	}
	return roundTo(stop, meta.Digits), roundTo(take, meta.Digits)
}

// PointProfit converts a signed price move into account currency for
// the given lot, using the instrument's per-point value convention
// (value of one point per 0.01 lot).
func PointProfit(move, lot float64, meta market.InstrumentMeta) float64 {
	points := move / meta.Point
	return points * meta.PointValue * (lot / 0.01)
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
