package analytics

import (
	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
)

// SimulatePnL scores a directional call on a spread series: the sum of
// spread changes, signed by the action. LONG_SPREAD profits when the spread
// widens, SHORT_SPREAD when it narrows, NONE scores zero. This is the crude
// ranking metric the backtest tool sorts pairs by, not a fill simulator.
func SimulatePnL(spread []float64, action sig.Action) float64 {
	if len(spread) < 2 {
		return 0
	}
	total := spread[len(spread)-1] - spread[0]
	switch action {
	case sig.ActionLongSpread:
		return total
	case sig.ActionShortSpread:
		return -total
	default:
		return 0
	}
}
