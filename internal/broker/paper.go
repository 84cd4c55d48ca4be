package broker

import (
	"context"
	"errors"
	"math"
	"sync"
)

type paperPosition struct {
	Qty      float64
	AvgPrice float64
}

// PaperClient is an in-process broker simulation: orders fill instantly at
// the last set price (or the limit price for limit orders), positions may go
// short, and realized PnL accrues when a position is reduced. It backs the
// paper trading mode and the test suite.
type PaperClient struct {
	mu          sync.Mutex
	cash        float64
	realizedPnL float64
	marks       map[string]float64
	positions   map[string]paperPosition
}

// NewPaperClient builds a simulator with the given starting cash.
func NewPaperClient(startingCash float64) *PaperClient {
	return &PaperClient{
		cash:      startingCash,
		marks:     make(map[string]float64),
		positions: make(map[string]paperPosition),
	}
}

// SetPrice records the latest traded price used for lookups and market fills.
func (p *PaperClient) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	p.marks[symbol] = price
	p.mu.Unlock()
}

// LatestPrice returns the recorded mark or ErrPriceUnavailable.
func (p *PaperClient) LatestPrice(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.marks[symbol]
	if !ok || price <= 0 {
		return 0, ErrPriceUnavailable
	}
	return price, nil
}

// SubmitOrder fills immediately, deriving quantity from notional when only
// notional sizing was given.
func (p *PaperClient) SubmitOrder(_ context.Context, order OrderRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.marks[order.Symbol]
	if order.Type == Limit {
		lp, _ := order.LimitPrice.Float64()
		if lp > 0 {
			price = lp
			ok = true
		}
	}
	if !ok || price <= 0 {
		return ErrPriceUnavailable
	}

	qty := order.Qty
	if qty <= 0 {
		if order.Notional <= 0 {
			return errors.New("order has neither qty nor notional")
		}
		qty = order.Notional / price
	}

	signed := qty
	if order.Side == Sell {
		signed = -qty
	}
	p.applyFill(order.Symbol, signed, price)
	return nil
}

// applyFill updates cash, position, and realized PnL for a signed quantity.
func (p *PaperClient) applyFill(symbol string, signedQty, price float64) {
	pos := p.positions[symbol]
	p.cash -= signedQty * price

	if pos.Qty == 0 || sameSign(pos.Qty, signedQty) {
		total := pos.Qty + signedQty
		if total != 0 {
			pos.AvgPrice = (pos.AvgPrice*pos.Qty + price*signedQty) / total
		}
		pos.Qty = total
	} else {
		closed := math.Min(math.Abs(signedQty), math.Abs(pos.Qty))
		direction := 1.0
		if pos.Qty < 0 {
			direction = -1.0
		}
		p.realizedPnL += (price - pos.AvgPrice) * closed * direction

		remainder := pos.Qty + signedQty
		switch {
		case remainder == 0:
			pos = paperPosition{}
		case sameSign(remainder, pos.Qty):
			pos.Qty = remainder // partial reduce keeps the old basis
		default:
			pos = paperPosition{Qty: remainder, AvgPrice: price} // crossed through flat
		}
	}

	if pos.Qty == 0 {
		delete(p.positions, symbol)
	} else {
		p.positions[symbol] = pos
	}
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

// Position returns the signed quantity held for the symbol.
func (p *PaperClient) Position(symbol string) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positions[symbol].Qty
}

// RealizedPnL returns accumulated closed-trade profit and loss.
func (p *PaperClient) RealizedPnL() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.realizedPnL
}

// Equity marks all positions against the latest prices and adds cash.
func (p *PaperClient) Equity() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	equity := p.cash
	for symbol, pos := range p.positions {
		equity += pos.Qty * p.marks[symbol]
	}
	return equity
}
