package diag

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// HPD returns the bounds of the narrowest interval containing prob of the
// samples (the highest-posterior-density interval, assuming a unimodal
// posterior). The input is copied before sorting, so repeated calls on the
// same slice are identical and the caller's data is untouched.
func HPD(samples []float64, prob float64) (float64, float64, error) {
	if len(samples) < 2 {
		return 0, 0, errors.Errorf("Need at least 2 samples for an HPD interval, have %d", len(samples))
	}
	if prob <= 0 || prob >= 1 {
		return 0, 0, errors.Errorf("HPD mass must be in (0,1), have %v", prob)
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	n := len(sorted)
	span := int(math.Ceil(prob * float64(n)))
	if span < 2 {
		span = 2
	}
	if span > n {
		span = n
	}

	bestLo := 0
	bestWidth := math.Inf(1)
	for i := 0; i+span <= n; i++ {
		width := sorted[i+span-1] - sorted[i]
		if width < bestWidth {
			bestWidth = width
			bestLo = i
		}
	}

	return sorted[bestLo], sorted[bestLo+span-1], nil
}
