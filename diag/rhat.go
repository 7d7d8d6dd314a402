// Package diag summarizes posterior traces: convergence statistics and
// highest-posterior-density intervals. Everything here is a pure function
// over the trace; nothing mutates it.
package diag

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SplitRhat computes the split potential-scale-reduction statistic over the
// given per-chain sample sequences. Each chain is halved so within-chain
// drift shows up as between-"chain" variance. Values near 1.0 indicate
// convergence. Returns NaN when the sequences are too short to judge.
func SplitRhat(chains [][]float64) float64 {
	if len(chains) < 1 {
		return math.NaN()
	}

	n := len(chains[0])
	for _, c := range chains {
		if len(c) < n {
			n = len(c)
		}
	}
	half := n / 2
	if half < 2 {
		return math.NaN()
	}

	// Split every chain into two halves of equal length
	var halves [][]float64
	for _, c := range chains {
		halves = append(halves, c[:half], c[n-half:n])
	}

	m := float64(len(halves))
	hn := float64(half)

	means := make([]float64, len(halves))
	var w float64 // mean within-sequence variance
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		w += stat.Variance(h, nil)
	}
	w /= m

	b := hn * stat.Variance(means, nil) // between-sequence variance

	if w <= 0 || math.IsNaN(w) {
		// All sequences constant: identical means converge trivially
		if b == 0 {
			return 1.0
		}
		return math.NaN()
	}

	varPlus := (hn-1.0)/hn*w + b/hn
	return math.Sqrt(varPlus / w)
}
