package ledger

import "time"

// RiskState carries the per-symbol timers and flags the entry gate and
// the portfolio manager consult. It lives alongside the ledger rather
// than in package-level maps so that guard evaluation receives it
// explicitly.
type RiskState struct {
	// LastTradeAt is when the last order for the symbol filled; the
	// inter-trade spacing guard measures from it.
	LastTradeAt time.Time

	// BackoffUntil blocks retries after a rejected order.
	BackoffUntil  time.Time
	ErrorNotified bool

	// cooldownNoted remembers which cooldown windows have already been
	// announced, keyed by direction and triggering ticket.
	cooldownNoted map[string]bool

	// lastAveraging is the time of the last same-direction add, per
	// direction.
	lastAveraging map[Direction]time.Time

	// peak tracks the highest unrealized profit seen per open ticket,
	// for the trailing lock-in rule. Entries are dropped on close.
	peak map[string]float64
}

// Risk returns the symbol's risk state, creating it on first use.
func (l *Ledger) Risk(symbol string) *RiskState {
	st, ok := l.risk[symbol]
	if !ok {
		st = &RiskState{
			cooldownNoted: make(map[string]bool),
			lastAveraging: make(map[Direction]time.Time),
			peak:          make(map[string]float64),
		}
		l.risk[symbol] = st
	}
	return st
}

// CooldownNoted reports whether the cooldown window identified by key
// has already fired its one-time notification, marking it if not.
func (s *RiskState) CooldownNoted(key string) bool {
	if s.cooldownNoted[key] {
		return true
	}
	s.cooldownNoted[key] = true
	return false
}

// ClearCooldownNote resets the notification flag once a window has
// elapsed, so a future streak announces again.
func (s *RiskState) ClearCooldownNote(key string) {
	delete(s.cooldownNoted, key)
}

// LastAveraging returns the time of the last same-direction add.
func (s *RiskState) LastAveraging(dir Direction) time.Time {
	return s.lastAveraging[dir]
}

// NoteAveraging records a same-direction add at t.
func (s *RiskState) NoteAveraging(dir Direction, t time.Time) {
	s.lastAveraging[dir] = t
}

// NotePeak folds the current unrealized profit into the ticket's peak
// and returns the running maximum.
func (s *RiskState) NotePeak(ticket string, profit float64) float64 {
	if profit > s.peak[ticket] {
		s.peak[ticket] = profit
	}
	return s.peak[ticket]
}

// ClearPeak drops a ticket's peak tracking entry.
func (s *RiskState) ClearPeak(ticket string) {
	delete(s.peak, ticket)
}
