// Package strategy turns a pair's price spread into discrete trading signals.
package strategy

// KalmanSmooth runs a scalar random-walk Kalman filter over the spread and
// returns the smoothed series, same length as the input. State starts at
// mean 0, variance 1; noiseCov is used as both process and observation
// noise, matching the signal model this bot was tuned with.
func KalmanSmooth(spread []float64, noiseCov float64) []float64 {
	mean := 0.0
	variance := 1.0

	out := make([]float64, len(spread))
	for i, obs := range spread {
		predVar := variance + noiseCov
		gain := predVar / (predVar + noiseCov)
		mean = mean + gain*(obs-mean)
		variance = (1 - gain) * predVar
		out[i] = mean
	}
	return out
}

// HedgeRatio estimates a time-varying regression y = beta*x + alpha with a
// two-state Kalman filter and returns the terminal alpha and beta. This is
// the richer spread model; the trading path deliberately uses the scalar
// smoother above, and this estimator backs the scan tool's diagnostics.
func HedgeRatio(y, x []float64) (alpha, beta float64, err error) {
	if len(y) != len(x) || len(y) == 0 {
		return 0, 0, errSeriesMismatch
	}

	const (
		transCov = 1e-5
		obsCov   = 1e-3
	)

	// state: [beta, alpha]
	m0, m1 := 0.0, 0.0
	p00, p01, p10, p11 := 1.0, 0.0, 0.0, 1.0

	for i := range y {
		// predict: random-walk transition, add process noise
		p00 += transCov
		p11 += transCov

		// observe through H = [x_i, 1]
		h0, h1 := x[i], 1.0
		s := h0*(p00*h0+p01*h1) + h1*(p10*h0+p11*h1) + obsCov
		if s == 0 {
			return 0, 0, errSeriesMismatch
		}
		k0 := (p00*h0 + p01*h1) / s
		k1 := (p10*h0 + p11*h1) / s

		innov := y[i] - (h0*m0 + h1*m1)
		m0 += k0 * innov
		m1 += k1 * innov

		// covariance update: (I - K H) P
		a00 := 1 - k0*h0
		a01 := -k0 * h1
		a10 := -k1 * h0
		a11 := 1 - k1*h1
		n00 := a00*p00 + a01*p10
		n01 := a00*p01 + a01*p11
		n10 := a10*p00 + a11*p10
		n11 := a10*p01 + a11*p11
		p00, p01, p10, p11 = n00, n01, n10, n11
	}
	return m1, m0, nil
}
