package config

import (
	"fmt"
	"time"
)

// Bounds parses the window's start and end as minutes from midnight.
func (w Window) Bounds() (start, end int, err error) {
	start, err = parseClock(w.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("bad start %q: %w", w.Start, err)
	}
	end, err = parseClock(w.End)
	if err != nil {
		return 0, 0, fmt.Errorf("bad end %q: %w", w.End, err)
	}
	return start, end, nil
}

// Contains reports whether t's time of day falls inside the window.
// Windows where start is later than end cross midnight.
func (w Window) Contains(t time.Time) bool {
	start, end, err := w.Bounds()
	if err != nil {
		return false
	}
	m := t.Hour()*60 + t.Minute()
	if start <= end {
		return m >= start && m <= end
	}
	return m >= start || m <= end
}

// InBlackout reports whether t falls inside any configured window.
func (c *Config) InBlackout(t time.Time) bool {
	for _, w := range c.Blackouts {
		if w.Contains(t) {
			return true
		}
	}
	return false
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
