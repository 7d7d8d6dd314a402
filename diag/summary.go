package diag

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/bayou-stats/bayou/sampler"
)

// VarSummary reports one trace component's posterior summary
type VarSummary struct {
	Name    string
	Mean    float64
	SD      float64
	HPDLow  float64
	HPDHigh float64
	Rhat    float64
}

// Summarize computes per-component posterior summaries over the trace:
// pooled mean and standard deviation, the HPD interval at the given mass,
// and split R-hat across chains. Failed chains are excluded; Suspect chains
// are retained (they are flagged, not discarded). Summarize reads the trace
// without mutating it, so summarizing twice yields identical results.
func Summarize(t *sampler.Trace, prob float64) ([]VarSummary, error) {
	if t == nil || t.NumChains() < 1 {
		return nil, errors.New("No trace to summarize")
	}

	usable := make([]int, 0, t.NumChains())
	for i, cs := range t.Stats {
		if !cs.Failed {
			usable = append(usable, i)
		}
	}
	if len(usable) < 1 {
		return nil, errors.New("Every chain in the trace failed")
	}

	out := make([]VarSummary, 0, len(t.Names))
	for _, name := range t.Names {
		series, err := t.Get(name)
		if err != nil {
			return nil, err
		}

		var pooled []float64
		kept := make([][]float64, 0, len(usable))
		for _, ci := range usable {
			pooled = append(pooled, series[ci]...)
			kept = append(kept, series[ci])
		}
		if len(pooled) < 2 {
			return nil, errors.Errorf("Component %s has %d pooled draws - not summarizable", name, len(pooled))
		}

		mean := stat.Mean(pooled, nil)
		sd := math.Sqrt(stat.Variance(pooled, nil))

		lo, hi, err := HPD(pooled, prob)
		if err != nil {
			return nil, errors.Wrapf(err, "HPD failed for %s", name)
		}

		out = append(out, VarSummary{
			Name:    name,
			Mean:    mean,
			SD:      sd,
			HPDLow:  lo,
			HPDHigh: hi,
			Rhat:    SplitRhat(kept),
		})
	}

	return out, nil
}
