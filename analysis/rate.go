package analysis

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/bayou-stats/bayou/model"
)

// PoissonRate builds a single-rate count model: an Exponential prior over
// the event rate, scaled so the prior mean sits near the sample mean, with
// a Poisson likelihood over the observed counts. The rate is named "rate"
// in the trace.
func PoissonRate(name string, counts []float64) (*model.Model, error) {
	if len(counts) < 1 {
		return nil, errors.Errorf("No counts supplied")
	}

	mean := stat.Mean(counts, nil)
	if mean < 0 {
		return nil, errors.Errorf("Counts have negative mean %v", mean)
	}

	b := model.NewBuilder(name)
	b.RV("rate", model.NewExponential(model.Const(1.0/(mean+1.0))))
	b.Observe("y", model.NewPoisson(model.Var("rate")), counts)

	return b.Build()
}
