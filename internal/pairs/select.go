package pairs

import (
	"sort"
	"strings"

	"github.com/Ianhayes66/pairsplus-bot/internal/marketdata"
)

// Pair is an unordered couple of tickers with its cointegration p-value.
type Pair struct {
	A      string
	B      string
	PValue float64
}

// Key returns the canonical order-independent identifier for the pair.
func (p Pair) Key() string {
	a, b := p.A, p.B
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "_" + b
}

// WindowPair tags a pair result with the panel window it was found in.
type WindowPair struct {
	Pair
	Start int
	End   int
}

// Options bounds the pair scan.
type Options struct {
	MaxPairs      int
	PValThreshold float64
	MinLength     int
}

func (o Options) withDefaults() Options {
	if o.MaxPairs <= 0 {
		o.MaxPairs = 10
	}
	if o.PValThreshold <= 0 {
		o.PValThreshold = 1.0
	}
	if o.MinLength <= 0 {
		o.MinLength = 30
	}
	return o
}

// Find scans every unordered ticker pair in the panel, aligns the two
// series, runs the cointegration test, and returns up to MaxPairs results
// sorted ascending by p-value. Pairs that cannot be aligned or whose test
// fails numerically are skipped silently. Ties in p-value keep enumeration
// order (stable sort); that order is implementation-defined, not guaranteed.
func Find(panel *marketdata.Panel, opts Options) []Pair {
	opts = opts.withDefaults()

	var found []Pair
	tickers := panel.Tickers
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			a, b := tickers[i], tickers[j]
			sa, sb, ok := marketdata.AlignSeries(panel.Column(a), panel.Column(b), opts.MinLength)
			if !ok {
				continue
			}
			_, pval, err := Coint(sa.Values, sb.Values)
			if err != nil {
				continue
			}
			if !isFinite(pval) || pval > opts.PValThreshold {
				continue
			}
			found = append(found, Pair{A: a, B: b, PValue: pval})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].PValue < found[j].PValue })
	if len(found) > opts.MaxPairs {
		found = found[:opts.MaxPairs]
	}
	return found
}

// FindRolling repeats the scan over every contiguous window of the given
// size, tagging results with the window bounds. Overlapping windows are not
// deduplicated; the output supports pair-stability analysis over time.
func FindRolling(panel *marketdata.Panel, window int, opts Options) []WindowPair {
	opts = opts.withDefaults()

	var results []WindowPair
	if window <= 0 || panel.Len() < window {
		return results
	}
	for start := 0; start+window <= panel.Len(); start++ {
		end := start + window
		sub := panel.Slice(start, end)
		for _, p := range Find(sub, opts) {
			results = append(results, WindowPair{Pair: p, Start: start, End: end})
		}
	}
	return results
}
