package strategy

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
)

var errSeriesMismatch = errors.New("series length mismatch")

// RollingZScore computes (v - rollingMean) / rollingStdDev over the given
// window. The first window-1 entries are NaN; a zero-variance window also
// yields NaN, which downstream treats as "no signal".
func RollingZScore(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	for i := range out {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		chunk := series[i-window+1 : i+1]
		mean := stat.Mean(chunk, nil)
		sd := stat.StdDev(chunk, nil)
		out[i] = (series[i] - mean) / sd
	}
	return out
}

// Generator holds the signal hyperparameters for one run.
type Generator struct {
	ZThreshold    float64
	RollingWindow int
	NoiseCov      float64
}

// FromSpread smooths the spread, computes the rolling z-score, and decides on
// the latest sample only. Strict inequalities on both sides: a z-score
// exactly at the threshold is no signal, and a non-finite latest z (not
// enough history, or a flat window) is no signal.
func (g Generator) FromSpread(a, b string, spread []float64) sig.Signal {
	s := sig.Signal{A: a, B: b, Action: sig.ActionNone, Ts: time.Now().UTC()}
	if len(spread) == 0 {
		return s
	}

	smoothed := KalmanSmooth(spread, g.NoiseCov)
	z := RollingZScore(smoothed, g.RollingWindow)
	latest := z[len(z)-1]

	s.Z = latest
	s.Action = actionForZ(latest, g.ZThreshold)
	return s
}

func actionForZ(z, threshold float64) sig.Action {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return sig.ActionNone
	}
	switch {
	case z > threshold:
		return sig.ActionShortSpread
	case z < -threshold:
		return sig.ActionLongSpread
	default:
		return sig.ActionNone
	}
}
