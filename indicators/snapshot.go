package indicators

import "github.com/antigravity/trader/market"

// Default periods, matching the M1 gold setup the bot was tuned on.
const (
	LongPeriod  = 200
	ShortPeriod = 20
	RSIPeriod   = 14
	ATRPeriod   = 14
	SlopeWindow = 20
)

// Snapshot bundles the derived values for the most recent bar. Each
// value carries an OK flag; an indicator whose lookback exceeds the
// available window is "not available" and its flag is false. Callers
// must treat an unavailable indicator as a WAIT condition.
type Snapshot struct {
	SMALong    float64
	SMALongOK  bool
	SMAShort   float64
	SMAShortOK bool
	RSI        float64
	RSIOK      bool
	ATR        float64
	ATROK      bool

	// SlopeLong is the relative drift of the long SMA over SlopeWindow
	// bars. It is always defined; with insufficient history it is 0 and
	// reads as flat.
	SlopeLong float64
}

// Ready reports whether every indicator the classifier needs is
// available.
func (s Snapshot) Ready() bool {
	return s.SMALongOK && s.SMAShortOK && s.RSIOK && s.ATROK
}

// Compute derives a Snapshot from an ordered bar window using the
// default periods.
func Compute(bars []market.Bar) Snapshot {
	var s Snapshot
	if v, err := SMA(bars, LongPeriod); err == nil {
		s.SMALong = v
		s.SMALongOK = true
	}
	if v, err := SMA(bars, ShortPeriod); err == nil {
		s.SMAShort = v
		s.SMAShortOK = true
	}
	if v, err := RSI(bars, RSIPeriod); err == nil {
		s.RSI = v
		s.RSIOK = true
	}
	if v, err := ATR(bars, ATRPeriod); err == nil {
		s.ATR = v
		s.ATROK = true
	}
	s.SlopeLong = SlopeRatio(bars, LongPeriod, SlopeWindow)
	return s
}
