package execution

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ianhayes66/pairsplus-bot/internal/broker"
)

// scriptedClient fails the first failCount submissions, then succeeds. It
// records every submitted order and serves fixed prices.
type scriptedClient struct {
	prices    map[string]float64
	failCount int
	submits   []broker.OrderRequest
	failSyms  map[string]bool
}

func (s *scriptedClient) LatestPrice(_ context.Context, symbol string) (float64, error) {
	price, ok := s.prices[symbol]
	if !ok || price <= 0 {
		return 0, broker.ErrPriceUnavailable
	}
	return price, nil
}

func (s *scriptedClient) SubmitOrder(_ context.Context, req broker.OrderRequest) error {
	s.submits = append(s.submits, req)
	if s.failSyms != nil && s.failSyms[req.Symbol] {
		return errors.New("scripted rejection")
	}
	if s.failCount > 0 {
		s.failCount--
		return errors.New("scripted failure")
	}
	return nil
}

func newTestExecutor(client broker.Client) *Executor {
	return &Executor{
		Client:     client,
		Log:        zerolog.Nop(),
		OrderType:  broker.Market,
		RetryPause: time.Millisecond,
	}
}

func TestBuildOrderRequestPeg(t *testing.T) {
	e := newTestExecutor(nil)
	e.OrderType = broker.Limit
	e.PegDistance = 0.05

	buy, err := e.BuildOrderRequest("AAPL", broker.Buy, 1, 0, 100)
	if err != nil {
		t.Fatalf("BuildOrderRequest returned error: %v", err)
	}
	if got := buy.LimitPrice.StringFixed(2); got != "105.00" {
		t.Fatalf("buy peg wrong: %s", got)
	}

	sell, err := e.BuildOrderRequest("AAPL", broker.Sell, 1, 0, 100)
	if err != nil {
		t.Fatalf("BuildOrderRequest returned error: %v", err)
	}
	if got := sell.LimitPrice.StringFixed(2); got != "95.00" {
		t.Fatalf("sell peg wrong: %s", got)
	}
}

func TestBuildOrderRequestDerivesLimitQty(t *testing.T) {
	e := newTestExecutor(nil)
	e.OrderType = broker.Limit
	e.PegDistance = 0.01

	req, err := e.BuildOrderRequest("MSFT", broker.Buy, 0, 1000, 300)
	if err != nil {
		t.Fatalf("BuildOrderRequest returned error: %v", err)
	}
	if req.Qty != 3 {
		t.Fatalf("expected derived qty 3, got %.2f", req.Qty)
	}

	// tiny notional still buys at least one share
	req, err = e.BuildOrderRequest("MSFT", broker.Buy, 0, 10, 300)
	if err != nil {
		t.Fatalf("BuildOrderRequest returned error: %v", err)
	}
	if req.Qty != 1 {
		t.Fatalf("expected minimum qty 1, got %.2f", req.Qty)
	}
}

func TestBuildOrderRequestValidation(t *testing.T) {
	e := newTestExecutor(nil)
	if _, err := e.BuildOrderRequest("AAPL", broker.Buy, 0, 0, 100); !errors.Is(err, ErrUnsized) {
		t.Fatalf("expected ErrUnsized, got %v", err)
	}

	e.OrderType = broker.Limit
	if _, err := e.BuildOrderRequest("AAPL", broker.Buy, 1, 0, 0); !errors.Is(err, ErrMissingLimitPrice) {
		t.Fatalf("expected ErrMissingLimitPrice, got %v", err)
	}
}

func TestSplitChunks(t *testing.T) {
	e := newTestExecutor(nil)
	e.SplitNotional = true

	if got := e.SplitChunks(50); len(got) != 2 || got[0] != 25 || got[1] != 25 {
		t.Fatalf("expected two halves of 25, got %v", got)
	}
	// the threshold itself is not split
	if got := e.SplitChunks(20); len(got) != 1 || got[0] != 20 {
		t.Fatalf("expected single chunk at threshold, got %v", got)
	}

	e.SplitNotional = false
	if got := e.SplitChunks(50); len(got) != 1 || got[0] != 50 {
		t.Fatalf("expected single chunk when disabled, got %v", got)
	}
}

func TestPlaceOrderRetriesThenSucceeds(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{}, failCount: 2}
	e := newTestExecutor(client)

	err := e.PlaceOrder(context.Background(), broker.OrderRequest{Symbol: "AAPL", Side: broker.Buy, Qty: 1, Type: broker.Market})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(client.submits) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(client.submits))
	}
}

func TestPlaceOrderExhaustsRetries(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{}, failCount: 100}
	e := newTestExecutor(client)

	err := e.PlaceOrder(context.Background(), broker.OrderRequest{Symbol: "AAPL", Side: broker.Buy, Qty: 1, Type: broker.Market})
	if err == nil {
		t.Fatalf("expected failure after exhausting retries")
	}
	if len(client.submits) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(client.submits))
	}
}

func TestPlacePairTradeHappyPath(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{"AAPL": 100, "MSFT": 25}}
	e := newTestExecutor(client)
	e.SplitNotional = true

	if err := e.PlacePairTrade(context.Background(), "AAPL", "MSFT", 50); err != nil {
		t.Fatalf("PlacePairTrade returned error: %v", err)
	}

	// two long chunks of 25 notional, then a 2-share short (50/25)
	if len(client.submits) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(client.submits))
	}
	if client.submits[0].Side != broker.Buy || client.submits[0].Notional != 25 {
		t.Fatalf("first long chunk wrong: %+v", client.submits[0])
	}
	short := client.submits[2]
	if short.Symbol != "MSFT" || short.Side != broker.Sell || short.Qty != 2 {
		t.Fatalf("short leg wrong: %+v", short)
	}
}

func TestPlacePairTradeAbortsOnMissingPrice(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{"MSFT": 25}}
	e := newTestExecutor(client)

	if err := e.PlacePairTrade(context.Background(), "AAPL", "MSFT", 50); err == nil {
		t.Fatalf("expected error for missing long price")
	}
	if len(client.submits) != 0 {
		t.Fatalf("no orders should be submitted without a price")
	}
}

func TestPlacePairTradeShortLegFailureLeavesLong(t *testing.T) {
	client := &scriptedClient{
		prices:   map[string]float64{"AAPL": 100, "MSFT": 25},
		failSyms: map[string]bool{"MSFT": true},
	}
	e := newTestExecutor(client)

	err := e.PlacePairTrade(context.Background(), "AAPL", "MSFT", 10)
	if err == nil {
		t.Fatalf("expected short leg failure to surface")
	}
	if !strings.Contains(err.Error(), "short leg") {
		t.Fatalf("error should name the short leg: %v", err)
	}
	// long leg filled once, short leg attempted 3 times, no unwind order
	var longOrders, shortOrders int
	for _, o := range client.submits {
		switch o.Symbol {
		case "AAPL":
			longOrders++
		case "MSFT":
			shortOrders++
		}
	}
	if longOrders != 1 || shortOrders != 3 {
		t.Fatalf("expected 1 long and 3 short attempts, got %d/%d", longOrders, shortOrders)
	}
}

func TestClosePairTradeFailsClosedOnPrice(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{"AAPL": 100}}
	e := newTestExecutor(client)

	if err := e.ClosePairTrade(context.Background(), "AAPL", "MSFT", 1); err == nil {
		t.Fatalf("expected error for missing short price")
	}
	if len(client.submits) != 0 {
		t.Fatalf("no offsetting orders should be submitted without both prices")
	}
}

func TestClosePairTradeSubmitsBothLegs(t *testing.T) {
	client := &scriptedClient{prices: map[string]float64{"AAPL": 100, "MSFT": 25}}
	e := newTestExecutor(client)

	if err := e.ClosePairTrade(context.Background(), "AAPL", "MSFT", 1); err != nil {
		t.Fatalf("ClosePairTrade returned error: %v", err)
	}
	if len(client.submits) != 2 {
		t.Fatalf("expected 2 offsetting orders, got %d", len(client.submits))
	}
	if client.submits[0].Side != broker.Sell || client.submits[0].Symbol != "AAPL" {
		t.Fatalf("first close order should sell the long ticker: %+v", client.submits[0])
	}
	if client.submits[1].Side != broker.Buy || client.submits[1].Symbol != "MSFT" {
		t.Fatalf("second close order should buy the short ticker: %+v", client.submits[1])
	}
}

func TestJSONLRecorderWritesFills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fills.jsonl")
	rec, err := NewJSONLRecorder(path)
	if err != nil {
		t.Fatalf("NewJSONLRecorder returned error: %v", err)
	}

	client := &scriptedClient{prices: map[string]float64{}}
	e := newTestExecutor(client)
	e.Recorder = rec

	if err := e.PlaceOrder(context.Background(), broker.OrderRequest{Symbol: "JPM", Side: broker.Buy, Qty: 2, Type: broker.Market}); err != nil {
		t.Fatalf("PlaceOrder returned error: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fills: %v", err)
	}
	var fill Fill
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &fill); err != nil {
		t.Fatalf("decode fill: %v", err)
	}
	if fill.Symbol != "JPM" || fill.Side != "BUY" || fill.Qty != 2 {
		t.Fatalf("fill malformed: %+v", fill)
	}
}

func TestRetryPauseDefaultsApplied(t *testing.T) {
	e := &Executor{}
	if e.attempts() != 3 {
		t.Fatalf("expected default 3 attempts, got %d", e.attempts())
	}
	if e.retryPause() != 2*time.Second {
		t.Fatalf("expected default 2s pause, got %s", e.retryPause())
	}
}
