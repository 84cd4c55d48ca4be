package marketdata

import (
	"context"
	"math"
	"time"
)

// Provider fetches a price panel covering the requested lookback. A failed
// fetch aborts the current trading cycle only; the caller logs and moves on.
type Provider interface {
	Fetch(ctx context.Context, tickers []string, interval string, lookbackDays int) (*Panel, error)
}

// StubProvider emits a deterministic synthetic panel, useful for tests and
// offline runs. Tickers come in cointegrated couples: each even/odd index
// pair shares a base walk, the odd one offset by a small stationary wiggle,
// so the pair scan always has something to find.
type StubProvider struct {
	// Rows overrides the generated panel length when positive.
	Rows int
}

// Fetch implements Provider with synthetic data; it never fails.
func (s StubProvider) Fetch(_ context.Context, tickers []string, _ string, lookbackDays int) (*Panel, error) {
	rows := s.Rows
	if rows <= 0 {
		rows = lookbackDays * 8
		if rows < 120 {
			rows = 120
		}
	}

	start := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	times := make([]time.Time, rows)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}

	prices := make(map[string][]float64, len(tickers))
	for idx, ticker := range tickers {
		base := 50.0 + 10.0*float64(idx/2)
		col := make([]float64, rows)
		for i := 0; i < rows; i++ {
			t := float64(i)
			walk := base + 0.05*t + 2.0*math.Sin(t/17.0+float64(idx/2))
			if idx%2 == 1 {
				// stationary offset keeps the couple cointegrated
				walk += 1.5 + 0.3*math.Sin(t/5.0)
			} else {
				walk += 0.4 * math.Cos(t/7.0)
			}
			col[i] = walk
		}
		prices[ticker] = col
	}
	return NewPanel(times, prices), nil
}
