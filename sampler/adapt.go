package sampler

import "math"

// dualAverager tunes the leapfrog step size during warmup toward a target
// acceptance probability (Nesterov dual averaging, the scheme the NUTS paper
// popularized). After warmup the smoothed estimate is frozen.
type dualAverager struct {
	mu         float64
	hBar       float64
	logStep    float64
	logStepBar float64
	count      int

	gamma float64
	t0    float64
	kappa float64
	delta float64 // target acceptance probability
}

func newDualAverager(step0 float64) *dualAverager {
	return &dualAverager{
		mu:         math.Log(10.0 * step0),
		logStep:    math.Log(step0),
		logStepBar: math.Log(step0),
		gamma:      0.05,
		t0:         10.0,
		kappa:      0.75,
		delta:      0.8,
	}
}

// update folds in one warmup iteration's acceptance probability and returns
// the step size to use next.
func (da *dualAverager) update(alpha float64) float64 {
	da.count++
	n := float64(da.count)

	frac := 1.0 / (n + da.t0)
	da.hBar = (1.0-frac)*da.hBar + frac*(da.delta-alpha)

	da.logStep = da.mu - math.Sqrt(n)/da.gamma*da.hBar

	pow := math.Pow(n, -da.kappa)
	da.logStepBar = pow*da.logStep + (1.0-pow)*da.logStepBar

	return math.Exp(da.logStep)
}

// finalize returns the smoothed step size for the collection phase
func (da *dualAverager) finalize() float64 {
	return math.Exp(da.logStepBar)
}

// massEstimator accumulates per-dimension posterior variance (Welford) from
// warmup positions; the regularized estimate becomes the diagonal inverse
// metric.
type massEstimator struct {
	n    int
	mean []float64
	m2   []float64
}

func newMassEstimator(dim int) *massEstimator {
	return &massEstimator{
		mean: make([]float64, dim),
		m2:   make([]float64, dim),
	}
}

func (me *massEstimator) observe(z []float64) {
	me.n++
	for i, zi := range z {
		d := zi - me.mean[i]
		me.mean[i] += d / float64(me.n)
		me.m2[i] += d * (zi - me.mean[i])
	}
}

// estimate returns the regularized variance estimate, or nil when too few
// positions were seen to trust it.
func (me *massEstimator) estimate() []float64 {
	if me.n < 10 {
		return nil
	}

	n := float64(me.n)
	out := make([]float64, len(me.m2))
	for i, m2 := range me.m2 {
		v := m2 / (n - 1.0)
		// Shrink toward unit variance the way adaptive warmups usually do
		v = (n/(n+5.0))*v + 1e-3*(5.0/(n+5.0))
		if v <= 0 || math.IsNaN(v) {
			v = 1.0
		}
		out[i] = v
	}
	return out
}
