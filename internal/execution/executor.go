// Package execution translates pair decisions into broker orders with
// retry, limit-price pegging, and notional-splitting policy.
package execution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ianhayes66/pairsplus-bot/internal/broker"
	"github.com/Ianhayes66/pairsplus-bot/internal/metrics"
)

const (
	defaultAttempts   = 3
	defaultRetryPause = 2 * time.Second
	// splitThreshold is the notional above which a long leg is split into
	// two child orders to reduce liquidity impact.
	splitThreshold = 20.0
)

var (
	// ErrUnsized is returned when neither qty nor notional resolves.
	ErrUnsized = errors.New("order needs qty or notional")
	// ErrMissingLimitPrice is returned for a limit order without a usable price.
	ErrMissingLimitPrice = errors.New("limit order needs a positive price")
)

// Executor submits one or two orders realizing a directional pair decision.
// It does not track position state; the caller owns the ledger.
type Executor struct {
	Client        broker.Client
	Log           zerolog.Logger
	OrderType     broker.OrderType
	PegDistance   float64
	SplitNotional bool
	Recorder      FillRecorder

	// Attempts and RetryPause bound the per-order retry loop; zero values
	// take the defaults of 3 attempts and 2s.
	Attempts   int
	RetryPause time.Duration
}

func (e *Executor) attempts() int {
	if e.Attempts > 0 {
		return e.Attempts
	}
	return defaultAttempts
}

func (e *Executor) retryPause() time.Duration {
	if e.RetryPause > 0 {
		return e.RetryPause
	}
	return defaultRetryPause
}

// BuildOrderRequest constructs a market or pegged-limit order. Exactly one
// of qty/notional must resolve. For limit orders the limit price pegs
// slightly through the last trade: up for buys, down for sells, rounded to
// cents.
func (e *Executor) BuildOrderRequest(symbol string, side broker.Side, qty, notional, price float64) (broker.OrderRequest, error) {
	if qty <= 0 && notional <= 0 {
		return broker.OrderRequest{}, fmt.Errorf("%w: %s", ErrUnsized, symbol)
	}

	if e.OrderType == broker.Limit {
		if price <= 0 {
			return broker.OrderRequest{}, fmt.Errorf("%w: %s", ErrMissingLimitPrice, symbol)
		}
		if qty <= 0 {
			qty = math.Max(1, math.Floor(notional/price))
			e.Log.Info().Str("sym", symbol).Float64("qty", qty).Float64("notional", notional).Msg("derived limit order qty")
		}

		peg := decimal.NewFromFloat(e.PegDistance)
		if side == broker.Sell {
			peg = peg.Neg()
		}
		limit := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(1).Add(peg)).Round(2)
		e.Log.Info().Str("sym", symbol).Str("side", string(side)).Str("limit", limit.StringFixed(2)).Float64("peg", e.PegDistance).Msg("pegged limit order")

		return broker.OrderRequest{
			Symbol:     symbol,
			Side:       side,
			Qty:        math.Floor(qty),
			Type:       broker.Limit,
			LimitPrice: limit,
		}, nil
	}

	req := broker.OrderRequest{Symbol: symbol, Side: side, Type: broker.Market}
	if qty > 0 {
		req.Qty = math.Floor(qty)
	} else {
		req.Notional = notional
	}
	return req, nil
}

// SplitChunks splits a notional into two equal halves when splitting is
// enabled and the amount exceeds the liquidity threshold; otherwise it is
// returned unchanged.
func (e *Executor) SplitChunks(notional float64) []float64 {
	if !e.SplitNotional || notional <= splitThreshold {
		return []float64{notional}
	}
	half, _ := decimal.NewFromFloat(notional).Div(decimal.NewFromInt(2)).Float64()
	e.Log.Info().Float64("notional", notional).Float64("half", half).Msg("splitting notional")
	return []float64{half, half}
}

// PlaceOrder submits with a bounded retry loop: up to 3 attempts, fixed
// pause between them. After exhaustion the order is reported failed and no
// compensation occurs.
func (e *Executor) PlaceOrder(ctx context.Context, req broker.OrderRequest) error {
	attempts := e.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		metrics.OrderAttemptsTotal.WithLabelValues(req.Symbol, string(req.Side)).Inc()
		e.Log.Info().Str("sym", req.Symbol).Str("side", string(req.Side)).Int("attempt", attempt).Msg("submitting order")

		if err := e.Client.SubmitOrder(ctx, req); err != nil {
			lastErr = err
			metrics.ErrorsTotal.Inc()
			e.Log.Warn().Err(err).Str("sym", req.Symbol).Int("attempt", attempt).Msg("order failed")
			if attempt < attempts {
				time.Sleep(e.retryPause())
			}
			continue
		}

		if e.Recorder != nil {
			e.Recorder.Record(newFill(req))
		}
		return nil
	}
	return fmt.Errorf("order for %s failed after %d attempts: %w", req.Symbol, attempts, lastErr)
}

// PlacePairTrade enters a new pair position: the long leg first (possibly
// split into chunks; a failed chunk aborts everything with no unwind), then
// the short leg sized in whole shares from notional/price. A failed short
// leg after a filled long leg leaves a one-legged position; that is reported
// as an error and deliberately not compensated.
func (e *Executor) PlacePairTrade(ctx context.Context, longSym, shortSym string, notional float64) error {
	e.Log.Info().Str("long", longSym).Str("short", shortSym).Float64("notional", notional).Msg("placing pair trade")

	for _, chunk := range e.SplitChunks(notional) {
		price, err := e.Client.LatestPrice(ctx, longSym)
		if err != nil || price <= 0 {
			return fmt.Errorf("long leg price for %s: %w", longSym, orPriceErr(err))
		}
		req, err := e.BuildOrderRequest(longSym, broker.Buy, 0, chunk, price)
		if err != nil {
			return err
		}
		if err := e.PlaceOrder(ctx, req); err != nil {
			return fmt.Errorf("long leg failed, aborting pair trade: %w", err)
		}
	}

	shortPrice, err := e.Client.LatestPrice(ctx, shortSym)
	if err != nil || shortPrice <= 0 {
		return fmt.Errorf("short leg price for %s: %w", shortSym, orPriceErr(err))
	}
	shortQty := math.Max(1, math.Floor(notional/shortPrice))
	req, err := e.BuildOrderRequest(shortSym, broker.Sell, shortQty, 0, shortPrice)
	if err != nil {
		return err
	}
	if err := e.PlaceOrder(ctx, req); err != nil {
		return fmt.Errorf("short leg failed, pair trade incomplete: %w", err)
	}
	return nil
}

// ClosePairTrade exits both legs: fetch both prices up front and fail closed
// if either is unavailable, then SELL the long ticker and BUY the short
// ticker. There is no atomicity between the two offsetting orders.
func (e *Executor) ClosePairTrade(ctx context.Context, longSym, shortSym string, qty float64) error {
	e.Log.Info().Str("long", longSym).Str("short", shortSym).Msg("closing pair trade")

	longPrice, err := e.Client.LatestPrice(ctx, longSym)
	if err != nil || longPrice <= 0 {
		return fmt.Errorf("close price for %s: %w", longSym, orPriceErr(err))
	}
	shortPrice, err := e.Client.LatestPrice(ctx, shortSym)
	if err != nil || shortPrice <= 0 {
		return fmt.Errorf("close price for %s: %w", shortSym, orPriceErr(err))
	}

	sellReq, err := e.BuildOrderRequest(longSym, broker.Sell, qty, 0, longPrice)
	if err != nil {
		return err
	}
	if err := e.PlaceOrder(ctx, sellReq); err != nil {
		return fmt.Errorf("close sell leg failed: %w", err)
	}

	buyReq, err := e.BuildOrderRequest(shortSym, broker.Buy, qty, 0, shortPrice)
	if err != nil {
		return err
	}
	if err := e.PlaceOrder(ctx, buyReq); err != nil {
		return fmt.Errorf("close buy leg failed: %w", err)
	}
	return nil
}

func orPriceErr(err error) error {
	if err != nil {
		return err
	}
	return broker.ErrPriceUnavailable
}
