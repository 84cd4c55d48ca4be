// Package analytics computes diagnostic features of a pair spread: volatility,
// momentum, mean-reversion half-life, and rolling hedge ratio. The trading
// path does not depend on these; the scan and backtest tools report them.
package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SpreadVolatility returns the rolling standard deviation of the spread.
// Entries before the window fills are NaN.
func SpreadVolatility(spread []float64, window int) []float64 {
	out := make([]float64, len(spread))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.StdDev(spread[i-window+1:i+1], nil)
	}
	return out
}

// Momentum returns spread[i] - spread[i-lag]; the first lag entries are NaN.
func Momentum(spread []float64, lag int) []float64 {
	out := make([]float64, len(spread))
	for i := range out {
		if i < lag {
			out[i] = math.NaN()
			continue
		}
		out[i] = spread[i] - spread[i-lag]
	}
	return out
}

// HalfLife estimates the half-life of mean reversion from an AR(1) fit of
// spread changes on lagged levels. A non-reverting spread returns +Inf.
func HalfLife(spread []float64) float64 {
	if len(spread) < 3 {
		return math.Inf(1)
	}
	n := len(spread) - 1
	lagged := make([]float64, n)
	delta := make([]float64, n)
	for i := 1; i < len(spread); i++ {
		lagged[i-1] = spread[i-1]
		delta[i-1] = spread[i] - spread[i-1]
	}

	_, beta := stat.LinearRegression(lagged, delta, nil, false)
	if beta >= 0 || math.IsNaN(beta) {
		return math.Inf(1)
	}
	return -math.Ln2 / beta
}

// RollingBeta returns the hedge ratio of y on x over a trailing window.
// The first window entries are NaN.
func RollingBeta(y, x []float64, window int) []float64 {
	out := make([]float64, len(y))
	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		_, beta := stat.LinearRegression(x[i-window:i], y[i-window:i], nil, false)
		out[i] = beta
	}
	return out
}
