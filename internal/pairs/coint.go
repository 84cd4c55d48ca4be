// Package pairs discovers cointegrated ticker pairs inside a price panel.
package pairs

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNumerical is returned when the cointegration regression cannot be
// estimated (constant series, singular design, too few rows). Callers skip
// the pair rather than propagate.
var ErrNumerical = errors.New("cointegration test failed numerically")

const minCointObs = 20

// Coint runs a two-step Engle-Granger test: OLS of y on x, then an augmented
// Dickey-Fuller regression (one lagged difference, no constant) on the
// residuals. It returns the ADF t-statistic and an interpolated MacKinnon
// p-value; lower p-value means stronger evidence of cointegration.
func Coint(y, x []float64) (stat_, pval float64, err error) {
	if len(y) != len(x) || len(y) < minCointObs {
		return 0, 0, ErrNumerical
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		return 0, 0, ErrNumerical
	}

	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - alpha - beta*x[i]
	}

	tau, err := adfStat(resid)
	if err != nil {
		return 0, 0, err
	}
	return tau, mackinnonP(tau), nil
}

// adfStat estimates de_t = rho*e_{t-1} + phi*de_{t-1} + u_t and returns the
// t-statistic on rho.
func adfStat(e []float64) (float64, error) {
	n := len(e)
	m := n - 2 // rows usable once one diff and one lag are consumed
	if m < 10 {
		return 0, ErrNumerical
	}

	X := mat.NewDense(m, 2, nil)
	yv := mat.NewVecDense(m, nil)
	for t := 2; t < n; t++ {
		row := t - 2
		X.Set(row, 0, e[t-1])        // lagged level
		X.Set(row, 1, e[t-1]-e[t-2]) // lagged difference
		yv.SetVec(row, e[t]-e[t-1])
	}

	var qr mat.QR
	qr.Factorize(X)
	var coef mat.VecDense
	if err := qr.SolveVecTo(&coef, false, yv); err != nil {
		return 0, ErrNumerical
	}

	// residual variance of the ADF regression
	var fitted mat.VecDense
	fitted.MulVec(X, &coef)
	rss := 0.0
	for i := 0; i < m; i++ {
		r := yv.AtVec(i) - fitted.AtVec(i)
		rss += r * r
	}
	sigma2 := rss / float64(m-2)

	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return 0, ErrNumerical
	}

	se := math.Sqrt(sigma2 * inv.At(0, 0))
	if se == 0 || !isFinite(se) {
		return 0, ErrNumerical
	}
	tau := coef.AtVec(0) / se
	if !isFinite(tau) {
		return 0, ErrNumerical
	}
	return tau, nil
}

// mackinnonTable maps ADF t-statistics to p-values for the two-variable
// Engle-Granger case with constant, piecewise-linear between anchor points
// taken from the MacKinnon critical-value tables.
var mackinnonTable = []struct{ tau, p float64 }{
	{-6.0, 0.0001},
	{-5.5, 0.0002},
	{-5.0, 0.0006},
	{-4.5, 0.002},
	{-4.0, 0.0075},
	{-3.9, 0.01},
	{-3.6, 0.022},
	{-3.34, 0.05},
	{-3.05, 0.10},
	{-2.8, 0.16},
	{-2.5, 0.25},
	{-2.0, 0.42},
	{-1.5, 0.60},
	{-1.0, 0.75},
	{-0.5, 0.86},
	{0.0, 0.93},
	{0.5, 0.97},
	{1.0, 0.985},
	{2.0, 0.998},
}

func mackinnonP(tau float64) float64 {
	table := mackinnonTable
	if tau <= table[0].tau {
		return table[0].p
	}
	last := table[len(table)-1]
	if tau >= last.tau {
		return last.p
	}
	for i := 1; i < len(table); i++ {
		if tau <= table[i].tau {
			lo, hi := table[i-1], table[i]
			frac := (tau - lo.tau) / (hi.tau - lo.tau)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return last.p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
