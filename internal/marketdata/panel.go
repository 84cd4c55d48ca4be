// Package marketdata provides aligned price history and live bar streams for the trading engine.
package marketdata

import (
	"math"
	"sort"
	"time"
)

// Series is a single ticker's price history, ordered by time.
type Series struct {
	Times  []time.Time
	Values []float64
}

// Len returns the number of observations in the series.
func (s Series) Len() int { return len(s.Values) }

// Panel is a time-ordered table of prices, one column per ticker. Columns
// share the Times index; a missing observation is stored as NaN and removed
// by AlignSeries before any pair is analyzed.
type Panel struct {
	Times   []time.Time
	Tickers []string
	Prices  map[string][]float64
}

// NewPanel builds a panel from per-ticker columns sharing the given index.
// Tickers are sorted so pair enumeration is deterministic.
func NewPanel(times []time.Time, prices map[string][]float64) *Panel {
	tickers := make([]string, 0, len(prices))
	for t := range prices {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return &Panel{Times: times, Tickers: tickers, Prices: prices}
}

// Column returns the series for one ticker. The slices are shared, not copied.
func (p *Panel) Column(ticker string) Series {
	return Series{Times: p.Times, Values: p.Prices[ticker]}
}

// Len returns the number of rows in the panel.
func (p *Panel) Len() int { return len(p.Times) }

// Slice returns a sub-panel over rows [start, end). Used by the rolling
// cointegration scan; the underlying arrays are shared.
func (p *Panel) Slice(start, end int) *Panel {
	prices := make(map[string][]float64, len(p.Prices))
	for t, col := range p.Prices {
		prices[t] = col[start:end]
	}
	return &Panel{Times: p.Times[start:end], Tickers: p.Tickers, Prices: prices}
}

// clean drops non-finite observations from a series.
func clean(s Series) Series {
	out := Series{
		Times:  make([]time.Time, 0, len(s.Values)),
		Values: make([]float64, 0, len(s.Values)),
	}
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out.Times = append(out.Times, s.Times[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// AlignSeries cleans both series independently and inner-joins them on
// timestamp. It reports ok=false when either side is empty after cleaning or
// the aligned length falls below minLength; bad data is a normal, silent
// outcome so the pair scan can keep going.
func AlignSeries(a, b Series, minLength int) (Series, Series, bool) {
	ca := clean(a)
	cb := clean(b)
	if ca.Len() == 0 || cb.Len() == 0 {
		return Series{}, Series{}, false
	}

	outA := Series{}
	outB := Series{}
	i, j := 0, 0
	for i < ca.Len() && j < cb.Len() {
		ta, tb := ca.Times[i], cb.Times[j]
		switch {
		case ta.Equal(tb):
			outA.Times = append(outA.Times, ta)
			outA.Values = append(outA.Values, ca.Values[i])
			outB.Times = append(outB.Times, tb)
			outB.Values = append(outB.Values, cb.Values[j])
			i++
			j++
		case ta.Before(tb):
			i++
		default:
			j++
		}
	}

	if outA.Len() < minLength {
		return Series{}, Series{}, false
	}
	return outA, outB, true
}

// Spread returns a-b for two sample-aligned series.
func Spread(a, b Series) []float64 {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = a.Values[i] - b.Values[i]
	}
	return out
}
