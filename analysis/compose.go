package analysis

import (
	"github.com/pkg/errors"

	"github.com/bayou-stats/bayou/model"
)

// Composition builds a Dirichlet-Multinomial model over observed
// per-component counts: a Dirichlet prior over the K component proportions
// and a Multinomial likelihood over the counts. alpha is the prior
// concentration; nil means the flat ones vector. The proportion vector is
// named "p", so p[i] in the trace is component i's posterior share.
func Composition(name string, counts []float64, alpha []float64) (*model.Model, error) {
	k := len(counts)
	if k < 2 {
		return nil, errors.Errorf("Composition needs at least 2 components, have %d", k)
	}

	if alpha == nil {
		alpha = make([]float64, k)
		for i := range alpha {
			alpha[i] = 1.0
		}
	}
	if len(alpha) != k {
		return nil, errors.Errorf("Concentration has %d components for %d counts", len(alpha), k)
	}

	total := 0
	for i, c := range counts {
		if c < 0 {
			return nil, errors.Errorf("Count %d is negative: %v", i, c)
		}
		total += int(c)
	}
	if total < 1 {
		return nil, errors.Errorf("Composition counts are all zero")
	}

	b := model.NewBuilder(name)
	b.RVVec("p", model.NewDirichlet(alpha), k)
	b.Observe("counts", model.NewMultinomial(total, model.Var("p")), counts)

	return b.Build()
}
