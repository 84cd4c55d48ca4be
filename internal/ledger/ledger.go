package ledger

import (
	"errors"
	"fmt"
)

// Side is the direction of an open pair position.
type Side string

const (
	SideLongSpread  Side = "LONG_SPREAD"
	SideShortSpread Side = "SHORT_SPREAD"
)

var (
	// ErrAlreadyOpen is returned when an entry is attempted for a pair that
	// already has an open position in either ticker order.
	ErrAlreadyOpen = errors.New("position already open for pair")
	// ErrNotOpen is returned when a close is attempted for a flat pair.
	ErrNotOpen = errors.New("no open position for pair")
)

// Ledger is the state machine recording which pairs are currently open.
// States per pair: flat (absent), LONG_SPREAD, SHORT_SPREAD. Every
// transition writes through to the Store before the in-memory state is
// committed; a failed write leaves the ledger unchanged and surfaces the
// error to the caller.
type Ledger struct {
	store     Store
	positions map[string]string
}

// New creates a ledger over the given store with no positions loaded yet.
func New(store Store) *Ledger {
	return &Ledger{store: store, positions: map[string]string{}}
}

// Load replaces the in-memory state with the stored map.
func (l *Ledger) Load() error {
	positions, err := l.store.Load()
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	l.positions = positions
	return nil
}

func key(a, b string) string { return a + "_" + b }

// IsOpen reports whether the pair has an open position under either ticker
// order. The canonical key is chosen at write time, so readers must check
// both.
func (l *Ledger) IsOpen(a, b string) bool {
	_, fwd := l.positions[key(a, b)]
	_, rev := l.positions[key(b, a)]
	return fwd || rev
}

// Side returns the open side for the pair, checking both ticker orders.
func (l *Ledger) Side(a, b string) (Side, bool) {
	if side, ok := l.positions[key(a, b)]; ok {
		return Side(side), true
	}
	if side, ok := l.positions[key(b, a)]; ok {
		return Side(side), true
	}
	return "", false
}

// Open records an entry for the pair and persists immediately. A pair may
// hold at most one open side at a time.
func (l *Ledger) Open(a, b string, side Side) error {
	if l.IsOpen(a, b) {
		return ErrAlreadyOpen
	}
	k := key(a, b)
	l.positions[k] = string(side)
	if err := l.store.Save(l.positions); err != nil {
		delete(l.positions, k)
		return fmt.Errorf("persist open: %w", err)
	}
	return nil
}

// Close removes the pair's position (under whichever key order it was
// stored) and persists immediately.
func (l *Ledger) Close(a, b string) error {
	k := key(a, b)
	stored, ok := l.positions[k]
	if !ok {
		k = key(b, a)
		stored, ok = l.positions[k]
	}
	if !ok {
		return ErrNotOpen
	}
	delete(l.positions, k)
	if err := l.store.Save(l.positions); err != nil {
		l.positions[k] = stored
		return fmt.Errorf("persist close: %w", err)
	}
	return nil
}

// Len returns the number of open positions.
func (l *Ledger) Len() int { return len(l.positions) }

// Snapshot returns a copy of the open position map.
func (l *Ledger) Snapshot() map[string]string {
	out := make(map[string]string, len(l.positions))
	for k, v := range l.positions {
		out[k] = v
	}
	return out
}
