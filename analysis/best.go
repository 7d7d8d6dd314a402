// Package analysis provides the prebuilt models this toolkit ships: robust
// group comparison with a Student-t likelihood, Dirichlet-Multinomial
// composition, and a Poisson rate model for counts.
package analysis

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/bayou-stats/bayou/model"
)

// nuRate is the prior rate for the shifted degrees-of-freedom parameter:
// Exponential(1/29) + 1 puts the prior mean at 30, covering both heavy
// tails and effectively-normal data.
const nuRate = 1.0 / 29.0

// Compare builds a robust k-group comparison model ("Bayesian estimation
// supersedes the t test", generalized to A/B/.../K): per-group means with a
// wide Normal prior, per-group scales with a HalfCauchy prior, and one
// shared Student-t likelihood whose degrees of freedom are floored above 1.
// labels names the groups; groups[i] assigns values[i] to labels[groups[i]].
// For every group pair the model adds deterministic difference-of-means,
// difference-of-scales and effect-size variables.
func Compare(name string, values []float64, groups []int, labels []string) (*model.Model, error) {
	k := len(labels)
	if k < 2 {
		return nil, errors.Errorf("Group comparison needs at least 2 groups, have %d", k)
	}
	if len(values) != len(groups) {
		return nil, errors.Errorf("Have %d values but %d group assignments", len(values), len(groups))
	}
	if len(values) < 2 {
		return nil, errors.Errorf("Not enough data to compare: %d values", len(values))
	}

	pooledMean := stat.Mean(values, nil)
	pooledSD := stat.StdDev(values, nil)
	if pooledSD <= 0 || math.IsNaN(pooledSD) {
		pooledSD = 1.0
	}

	b := model.NewBuilder(name)
	b.RVVec("mu", model.NewNormal(model.Const(pooledMean), model.Const(2.0*pooledSD)), k)
	b.RVVec("sigma", model.NewHalfCauchy(model.Const(pooledSD)), k)
	b.RVShifted("nu", model.NewExponential(model.Const(nuRate)), 1.0)

	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			pair := fmt.Sprintf("%s_%s", labels[i], labels[j])

			b.Det("diff_mean_"+pair,
				func(args []float64) float64 { return args[0] - args[1] },
				model.At("mu", i), model.At("mu", j))

			b.Det("diff_sigma_"+pair,
				func(args []float64) float64 { return args[0] - args[1] },
				model.At("sigma", i), model.At("sigma", j))

			b.Det("effect_"+pair,
				func(args []float64) float64 {
					return (args[0] - args[1]) / math.Sqrt((args[2]*args[2]+args[3]*args[3])/2.0)
				},
				model.At("mu", i), model.At("mu", j),
				model.At("sigma", i), model.At("sigma", j))
		}
	}

	b.ObserveGrouped("y",
		model.NewStudentT(model.Var("nu"), model.Var("mu"), model.Var("sigma")),
		values, groups)

	return b.Build()
}
