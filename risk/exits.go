package risk

import (
	"github.com/antigravity/trader/ledger"
	"github.com/antigravity/trader/market"
)

// BarExit checks a position's stop and target against one bar. The
// stop is checked before the target, so a bar wide enough to touch
// both resolves as a loss (pessimistic tie-break). Zero levels are
// ignored.
func BarExit(dir ledger.Direction, stop, take float64, bar market.Bar) (exitPrice float64, hit bool) {
	if dir == ledger.Buy {
		if stop > 0 && bar.Low <= stop {
			return stop, true
		}
		if take > 0 && bar.High >= take {
			return take, true
		}
		return 0, false
	}
	if stop > 0 && bar.High >= stop {
		return stop, true
	}
	if take > 0 && bar.Low <= take {
		return take, true
	}
	return 0, false
}
