package model

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution family constants. Continuous families may serve as priors;
// any family may serve as an observation likelihood.
const (
	Normal      = "Normal"
	HalfNormal  = "HalfNormal"
	HalfCauchy  = "HalfCauchy"
	Exponential = "Exponential"
	StudentT    = "StudentT"
	Uniform     = "Uniform"
	Beta        = "Beta"
	Poisson     = "Poisson"
	Binomial    = "Binomial"
	Dirichlet   = "Dirichlet"
	Multinomial = "Multinomial"
)

// A Ref is a distribution parameter: either a literal constant or a named
// reference to a declared variable. A reference may address one component of
// a vector variable (Index >= 0) or the whole vector (Index == -1, only
// meaningful where a vector is expected, e.g. Multinomial probabilities or a
// grouped observation's per-group parameter).
type Ref struct {
	Name  string  // Empty means constant
	Index int     // Component index into a vector variable, -1 for whole vector
	Value float64 // Constant value when Name is empty
}

// Const creates a constant-valued Ref
func Const(v float64) Ref {
	return Ref{Value: v}
}

// Var creates a Ref to a declared scalar variable (or to a whole vector,
// where the parameter position expects one).
func Var(name string) Ref {
	return Ref{Name: name, Index: -1}
}

// At creates a Ref to one component of a declared vector variable
func At(name string, index int) Ref {
	return Ref{Name: name, Index: index}
}

// IsConst returns true for literal-constant refs
func (r Ref) IsConst() bool {
	return r.Name == ""
}

// Dist is a tagged distribution: a family plus its parameters. Scalar
// parameters live in Params in family order; Dirichlet carries a constant
// concentration vector and Multinomial/Binomial carry a fixed trial count.
type Dist struct {
	Family string
	Params []Ref     // Scalar parameters, family order (see constructors)
	Alpha  []float64 // Dirichlet concentration (constants only)
	Trials int       // Binomial/Multinomial trial count
	Probs  Ref       // Multinomial probability vector (whole-vector ref)
}

// NewNormal builds a Normal(mu, sigma) distribution
func NewNormal(mu, sigma Ref) Dist {
	return Dist{Family: Normal, Params: []Ref{mu, sigma}}
}

// NewHalfNormal builds a HalfNormal(sigma) distribution (positive support)
func NewHalfNormal(sigma Ref) Dist {
	return Dist{Family: HalfNormal, Params: []Ref{sigma}}
}

// NewHalfCauchy builds a HalfCauchy(scale) distribution (positive support)
func NewHalfCauchy(scale Ref) Dist {
	return Dist{Family: HalfCauchy, Params: []Ref{scale}}
}

// NewExponential builds an Exponential(rate) distribution (positive support)
func NewExponential(rate Ref) Dist {
	return Dist{Family: Exponential, Params: []Ref{rate}}
}

// NewStudentT builds a location-scale StudentT(nu, mu, sigma) distribution
func NewStudentT(nu, mu, sigma Ref) Dist {
	return Dist{Family: StudentT, Params: []Ref{nu, mu, sigma}}
}

// NewUniform builds a Uniform(low, high) distribution. Bounds must be
// constants: they define the support, not just the density.
func NewUniform(low, high Ref) Dist {
	return Dist{Family: Uniform, Params: []Ref{low, high}}
}

// NewBeta builds a Beta(alpha, beta) distribution on (0, 1)
func NewBeta(alpha, beta Ref) Dist {
	return Dist{Family: Beta, Params: []Ref{alpha, beta}}
}

// NewPoisson builds a Poisson(rate) count distribution
func NewPoisson(rate Ref) Dist {
	return Dist{Family: Poisson, Params: []Ref{rate}}
}

// NewBinomial builds a Binomial(trials, p) count distribution
func NewBinomial(trials int, p Ref) Dist {
	return Dist{Family: Binomial, Params: []Ref{p}, Trials: trials}
}

// NewDirichlet builds a Dirichlet distribution over a simplex of
// len(alpha) components
func NewDirichlet(alpha []float64) Dist {
	cp := make([]float64, len(alpha))
	copy(cp, alpha)
	return Dist{Family: Dirichlet, Alpha: cp}
}

// NewMultinomial builds a Multinomial(trials, probs) likelihood where probs
// references a declared simplex-valued (Dirichlet) vector variable
func NewMultinomial(trials int, probs Ref) Dist {
	return Dist{Family: Multinomial, Probs: probs, Trials: trials}
}

// paramCount returns how many scalar params a family takes
func paramCount(family string) int {
	switch family {
	case Normal:
		return 2
	case HalfNormal, HalfCauchy, Exponential, Poisson:
		return 1
	case StudentT:
		return 3
	case Uniform, Beta:
		return 2
	case Binomial:
		return 1
	case Dirichlet, Multinomial:
		return 0
	}
	return -1
}

// continuous reports whether the family may serve as a prior for a sampled
// variable. Discrete families are likelihood-only.
func continuous(family string) bool {
	switch family {
	case Normal, HalfNormal, HalfCauchy, Exponential, StudentT, Uniform, Beta, Dirichlet:
		return true
	}
	return false
}

// badLogProb is returned for any point outside support or any numerically
// invalid parameterization. The sampler treats it as an automatic rejection.
func badLogProb() float64 {
	return math.Inf(-1)
}

// logPdf evaluates a scalar family's log density/mass at x given resolved
// parameter values p. Invalid parameters yield -Inf, never a panic.
func logPdf(family string, p []float64, x float64) float64 {
	switch family {
	case Normal:
		if p[1] <= 0 {
			return badLogProb()
		}
		return distuv.Normal{Mu: p[0], Sigma: p[1]}.LogProb(x)
	case HalfNormal:
		if p[0] <= 0 || x < 0 {
			return badLogProb()
		}
		return math.Ln2 + distuv.Normal{Mu: 0, Sigma: p[0]}.LogProb(x)
	case HalfCauchy:
		if p[0] <= 0 || x < 0 {
			return badLogProb()
		}
		r := x / p[0]
		return math.Ln2 - math.Log(math.Pi*p[0]) - math.Log1p(r*r)
	case Exponential:
		if p[0] <= 0 || x < 0 {
			return badLogProb()
		}
		return distuv.Exponential{Rate: p[0]}.LogProb(x)
	case StudentT:
		if p[0] <= 0 || p[2] <= 0 {
			return badLogProb()
		}
		return distuv.StudentsT{Nu: p[0], Mu: p[1], Sigma: p[2]}.LogProb(x)
	case Uniform:
		if p[1] <= p[0] || x < p[0] || x > p[1] {
			return badLogProb()
		}
		return distuv.Uniform{Min: p[0], Max: p[1]}.LogProb(x)
	case Beta:
		if p[0] <= 0 || p[1] <= 0 || x <= 0 || x >= 1 {
			return badLogProb()
		}
		return distuv.Beta{Alpha: p[0], Beta: p[1]}.LogProb(x)
	case Poisson:
		if p[0] <= 0 || x < 0 {
			return badLogProb()
		}
		return distuv.Poisson{Lambda: p[0]}.LogProb(x)
	case Binomial:
		// Trials is carried separately: p[0] is the success probability and
		// p[1] the trial count, appended by the caller.
		if p[0] <= 0 || p[0] >= 1 || x < 0 || x > p[1] {
			return badLogProb()
		}
		return distuv.Binomial{N: p[1], P: p[0]}.LogProb(x)
	}
	return badLogProb()
}

// logPdfDirichlet evaluates a Dirichlet log density at simplex point x
func logPdfDirichlet(alpha []float64, x []float64) float64 {
	if len(alpha) != len(x) {
		return badLogProb()
	}

	var sumA, lp float64
	for i, a := range alpha {
		if a <= 0 || x[i] <= 0 {
			return badLogProb()
		}
		lg, _ := math.Lgamma(a)
		lp -= lg
		lp += (a - 1.0) * math.Log(x[i])
		sumA += a
	}

	lg, _ := math.Lgamma(sumA)
	return lp + lg
}

// logPmfMultinomial evaluates a Multinomial log mass for counts given
// probability vector probs. Counts are validated at model construction;
// probs comes from the sampled simplex and is re-checked here.
func logPmfMultinomial(counts []float64, probs []float64) float64 {
	if len(counts) != len(probs) {
		return badLogProb()
	}

	var n, lp float64
	for i, k := range counts {
		if probs[i] <= 0 {
			return badLogProb()
		}
		lgk, _ := math.Lgamma(k + 1.0)
		lp -= lgk
		lp += k * math.Log(probs[i])
		n += k
	}

	lgn, _ := math.Lgamma(n + 1.0)
	return lp + lgn
}
