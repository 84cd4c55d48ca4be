// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Action enumerates the discrete trading decisions a strategy can emit for a pair.
type Action int

const (
	// ActionNone means the spread is inside its normal band; no trade.
	ActionNone Action = iota
	// ActionLongSpread means buy the first leg and sell the second, expecting the spread to widen.
	ActionLongSpread
	// ActionShortSpread means sell the first leg and buy the second, expecting the spread to narrow.
	ActionShortSpread
)

// String renders the action in the wire form used by the ledger and trade log.
func (a Action) String() string {
	switch a {
	case ActionLongSpread:
		return "LONG_SPREAD"
	case ActionShortSpread:
		return "SHORT_SPREAD"
	default:
		return "NONE"
	}
}

// Signal expresses the decision produced for one ticker pair during one cycle.
// Z carries the latest rolling z-score of the smoothed spread; it is only
// meaningful when Action is not ActionNone.
type Signal struct {
	A      string
	B      string
	Action Action
	Z      float64
	Ts     time.Time
}

// Bar models the essential piece of market data consumed by the streaming driver.
type Bar struct {
	Symbol string
	Price  float64
	Ts     time.Time
}
