package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultDataBaseURL = "https://data.alpaca.markets"

// AlpacaProvider fetches historical stock bars from the Alpaca data API.
type AlpacaProvider struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Client    *http.Client
}

type alpacaBar struct {
	Ts    time.Time `json:"t"`
	Close float64   `json:"c"`
}

type alpacaBarsResponse struct {
	Bars          map[string][]alpacaBar `json:"bars"`
	NextPageToken *string                `json:"next_page_token"`
}

// Fetch pulls close prices for all tickers over the lookback window and
// assembles them into a panel on the union of bar timestamps. Gaps are NaN
// and handled later by AlignSeries.
func (a *AlpacaProvider) Fetch(ctx context.Context, tickers []string, interval string, lookbackDays int) (*Panel, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers requested")
	}
	base := a.BaseURL
	if base == "" {
		base = defaultDataBaseURL
	}
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	timeframe, err := alpacaTimeframe(interval)
	if err != nil {
		return nil, err
	}
	start := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	perTicker := make(map[string]map[time.Time]float64, len(tickers))
	for _, t := range tickers {
		perTicker[t] = make(map[time.Time]float64)
	}

	pageToken := ""
	for {
		q := url.Values{}
		q.Set("symbols", strings.Join(tickers, ","))
		q.Set("timeframe", timeframe)
		q.Set("start", start.Format(time.RFC3339))
		q.Set("limit", "10000")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v2/stocks/bars?"+q.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build bars request: %w", err)
		}
		req.Header.Set("APCA-API-KEY-ID", a.APIKey)
		req.Header.Set("APCA-API-SECRET-KEY", a.APISecret)

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch bars: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch bars: unexpected status %s", resp.Status)
		}

		var body alpacaBarsResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("decode bars: %w", err)
		}
		resp.Body.Close()

		for symbol, bars := range body.Bars {
			col, ok := perTicker[symbol]
			if !ok {
				continue
			}
			for _, bar := range bars {
				col[bar.Ts.UTC()] = bar.Close
			}
		}

		if body.NextPageToken == nil || *body.NextPageToken == "" {
			break
		}
		pageToken = *body.NextPageToken
	}

	return assemblePanel(perTicker)
}

func alpacaTimeframe(interval string) (string, error) {
	switch strings.ToLower(interval) {
	case "1m", "1min":
		return "1Min", nil
	case "1h", "1hour":
		return "1Hour", nil
	case "1d", "1day":
		return "1Day", nil
	default:
		return "", fmt.Errorf("unsupported bar interval %q", interval)
	}
}

func assemblePanel(perTicker map[string]map[time.Time]float64) (*Panel, error) {
	stamps := make(map[time.Time]struct{})
	for _, col := range perTicker {
		for ts := range col {
			stamps[ts] = struct{}{}
		}
	}
	if len(stamps) == 0 {
		return nil, fmt.Errorf("empty bars response")
	}

	times := make([]time.Time, 0, len(stamps))
	for ts := range stamps {
		times = append(times, ts)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	prices := make(map[string][]float64, len(perTicker))
	for ticker, col := range perTicker {
		series := make([]float64, len(times))
		for i, ts := range times {
			if v, ok := col[ts]; ok {
				series[i] = v
			} else {
				series[i] = math.NaN()
			}
		}
		prices[ticker] = series
	}
	return NewPanel(times, prices), nil
}
