// Package market holds the primitive price types shared by the live
// engine and the backtester: bars, ticks and instrument metadata.
package market

import "time"

// Bar is one OHLC sample for a fixed time interval. Sequences of bars
// are ordered oldest-first and append-only.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64 // tick volume, zero when the source does not report it
}

// Range returns the high-low span of the bar.
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Day returns the bar's calendar day truncated to midnight (bar's location).
func (b Bar) Day() time.Time {
	y, m, d := b.Time.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, b.Time.Location())
}

// SplitByDay partitions an ordered bar sequence into per-day slices,
// keyed by midnight timestamps, preserving order within each day.
func SplitByDay(bars []Bar) map[time.Time][]Bar {
	out := make(map[time.Time][]Bar)
	for _, b := range bars {
		day := b.Day()
		out[day] = append(out[day], b)
	}
	return out
}

// Days returns the sorted list of calendar days covered by bars.
func Days(bars []Bar) []time.Time {
	var days []time.Time
	var last time.Time
	for _, b := range bars {
		day := b.Day()
		if !day.Equal(last) {
			days = append(days, day)
			last = day
		}
	}
	return days
}
