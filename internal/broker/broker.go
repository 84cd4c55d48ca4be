// Package broker defines the order-submission contract and its Alpaca and
// paper-trading implementations.
package broker

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Side enumerates order directions.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType selects market or pegged-limit execution.
type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// ErrPriceUnavailable is returned when a latest-trade lookup has no usable
// price. Callers abort the enclosing leg, never retry the lookup.
var ErrPriceUnavailable = errors.New("latest price unavailable")

// OrderRequest describes a single order. Exactly one of Qty and Notional is
// set; LimitPrice is only meaningful for limit orders. Time-in-force is
// always day.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Qty        float64
	Notional   float64
	Type       OrderType
	LimitPrice decimal.Decimal
}

// Client is the broker surface the executor depends on.
type Client interface {
	// LatestPrice fetches the last traded price for a symbol.
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	// SubmitOrder submits a single order and reports success or failure.
	SubmitOrder(ctx context.Context, req OrderRequest) error
}
