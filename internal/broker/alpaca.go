package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	defaultTradingBaseURL = "https://paper-api.alpaca.markets"
	defaultDataBaseURL    = "https://data.alpaca.markets"
)

// AlpacaClient submits orders and looks up latest trades against the Alpaca
// REST API.
type AlpacaClient struct {
	BaseURL   string
	DataURL   string
	APIKey    string
	APISecret string
	Client    *http.Client
}

func (a *AlpacaClient) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (a *AlpacaClient) auth(req *http.Request) {
	req.Header.Set("APCA-API-KEY-ID", a.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", a.APISecret)
}

type alpacaLatestTradeResponse struct {
	Trade struct {
		Price float64 `json:"p"`
	} `json:"trade"`
}

// LatestPrice fetches the last trade for the symbol; a missing or
// non-positive price maps to ErrPriceUnavailable.
func (a *AlpacaClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	base := a.DataURL
	if base == "" {
		base = defaultDataBaseURL
	}
	url := fmt.Sprintf("%s/v2/stocks/%s/trades/latest", base, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build latest trade request: %w", err)
	}
	a.auth(req)

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch latest trade: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch latest trade: unexpected status %s", resp.Status)
	}

	var body alpacaLatestTradeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode latest trade: %w", err)
	}
	if body.Trade.Price <= 0 {
		return 0, ErrPriceUnavailable
	}
	return body.Trade.Price, nil
}

type alpacaOrderBody struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty,omitempty"`
	Notional    string `json:"notional,omitempty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
	LimitPrice  string `json:"limit_price,omitempty"`
}

// SubmitOrder posts the order with day time-in-force. Alpaca rejects orders
// carrying both qty and notional, so only the populated field is sent.
func (a *AlpacaClient) SubmitOrder(ctx context.Context, order OrderRequest) error {
	base := a.BaseURL
	if base == "" {
		base = defaultTradingBaseURL
	}

	body := alpacaOrderBody{
		Symbol:      order.Symbol,
		Side:        strings.ToLower(string(order.Side)),
		Type:        strings.ToLower(string(order.Type)),
		TimeInForce: "day",
	}
	if order.Qty > 0 {
		body.Qty = decimal.NewFromFloat(order.Qty).String()
	} else if order.Notional > 0 {
		body.Notional = decimal.NewFromFloat(order.Notional).String()
	}
	if order.Type == Limit {
		body.LimitPrice = order.LimitPrice.StringFixed(2)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v2/orders", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	a.auth(req)

	resp, err := a.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("submit order: unexpected status %s", resp.Status)
	}
	return nil
}
