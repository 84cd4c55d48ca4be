// Package risk holds the guard-rails applied before any new pair entry.
package risk

// Limits caps how much size a single pair entry may take on. A zero cap
// disables the check.
type Limits struct {
	MaxNotionalPerTrade float64
}

// Allow reports whether an entry of the given notional is within limits.
func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}
