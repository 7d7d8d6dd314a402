package sampler

import (
	"math"

	"github.com/bayou-stats/bayou/model"
	"github.com/bayou-stats/bayou/rand"
)

const (
	// leapfrogSteps is the fixed trajectory length; the step size adapts
	leapfrogSteps = 16

	// gradEps scales the central-difference step for the numerical gradient
	gradEps = 1e-5

	// maxEnergyError marks a transition divergent: the Hamiltonian should be
	// approximately conserved, so a blow-up of this size means the
	// integrator left the region where the density is usable.
	maxEnergyError = 1000.0
)

// hmcKernel is a Hamiltonian Monte Carlo transition over the model's
// unconstrained space: leapfrog trajectories with a Metropolis correction,
// so detailed balance holds exactly even though the gradient is numerical.
type hmcKernel struct {
	mod     *model.Model
	gen     *rand.Generator
	step    float64
	invMass []float64 // diagonal inverse metric (posterior variance estimate)
}

func newHMCKernel(mod *model.Model, gen *rand.Generator) *hmcKernel {
	im := make([]float64, mod.Dim())
	for i := range im {
		im[i] = 1.0
	}
	return &hmcKernel{
		mod:     mod,
		gen:     gen,
		step:    0.1,
		invMass: im,
	}
}

// gradient computes a central-difference gradient of the log density.
// Returns ok=false when any probe point is non-finite: the caller treats the
// trajectory as divergent.
func (k *hmcKernel) gradient(z []float64, g []float64) bool {
	for i := range z {
		h := gradEps * (1.0 + math.Abs(z[i]))
		orig := z[i]

		z[i] = orig + h
		up := k.mod.LogProb(z)
		z[i] = orig - h
		dn := k.mod.LogProb(z)
		z[i] = orig

		if math.IsInf(up, 0) || math.IsInf(dn, 0) || math.IsNaN(up) || math.IsNaN(dn) {
			return false
		}
		g[i] = (up - dn) / (2.0 * h)
	}
	return true
}

// kinetic evaluates the momentum's energy under the diagonal metric
func (k *hmcKernel) kinetic(r []float64) float64 {
	var e float64
	for i, ri := range r {
		e += 0.5 * ri * ri * k.invMass[i]
	}
	return e
}

// Transition advances one HMC iteration from position z with cached log
// density logProb. On rejection or divergence the returned Step carries the
// original position, per the retain-previous-point policy.
func (k *hmcKernel) Transition(z []float64, logProb float64) Step {
	dim := len(z)

	zNew := make([]float64, dim)
	copy(zNew, z)
	g := make([]float64, dim)

	if !k.gradient(zNew, g) {
		// Gradient unusable at the current point (for example a bad initial
		// position). Fall back to a symmetric random-walk proposal so the
		// chain can still move; plain Metropolis keeps detailed balance.
		return k.walkTransition(z, logProb)
	}

	// Momentum refresh under the diagonal metric
	r := make([]float64, dim)
	for i := range r {
		r[i] = k.gen.NormFloat64() / math.Sqrt(k.invMass[i])
	}
	h0 := -logProb + k.kinetic(r)

	// Jittered step size breaks periodic orbits
	eps := k.step * (0.9 + 0.2*k.gen.Float64())

	// Leapfrog trajectory
	diverged := false
	for i := range r {
		r[i] += 0.5 * eps * g[i]
	}
	for l := 0; l < leapfrogSteps; l++ {
		for i := range zNew {
			zNew[i] += eps * k.invMass[i] * r[i]
		}
		if !k.gradient(zNew, g) {
			diverged = true
			break
		}
		scale := eps
		if l == leapfrogSteps-1 {
			scale = 0.5 * eps
		}
		for i := range r {
			r[i] += scale * g[i]
		}
	}

	if diverged {
		return Step{Z: z, LogProb: logProb, Alpha: 0.0, Diverged: true}
	}

	lpNew := k.mod.LogProb(zNew)
	h1 := -lpNew + k.kinetic(r)

	if math.IsNaN(h1) || math.IsInf(h1, 1) || h1-h0 > maxEnergyError {
		return Step{Z: z, LogProb: logProb, Alpha: 0.0, Diverged: true}
	}

	alpha := math.Exp(h0 - h1)
	if alpha > 1.0 {
		alpha = 1.0
	}
	if k.gen.Float64() < alpha {
		return Step{Z: zNew, LogProb: lpNew, Alpha: alpha, Accepted: true}
	}
	return Step{Z: z, LogProb: logProb, Alpha: alpha}
}

// walkTransition is the gradient-free fallback: a spherical random-walk
// proposal with a Metropolis accept.
func (k *hmcKernel) walkTransition(z []float64, logProb float64) Step {
	zNew := make([]float64, len(z))
	for i := range z {
		zNew[i] = z[i] + k.step*k.gen.NormFloat64()
	}

	lpNew := k.mod.LogProb(zNew)
	if math.IsNaN(lpNew) || math.IsInf(lpNew, 0) {
		return Step{Z: z, LogProb: logProb, Alpha: 0.0, Diverged: true}
	}

	alpha := math.Exp(lpNew - logProb)
	if alpha > 1.0 {
		alpha = 1.0
	}
	if k.gen.Float64() < alpha {
		return Step{Z: zNew, LogProb: lpNew, Alpha: alpha, Accepted: true}
	}
	return Step{Z: z, LogProb: logProb, Alpha: alpha}
}
