package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDualAveragerDirection(t *testing.T) {
	assert := assert.New(t)

	// Acceptance consistently above the 0.8 target pushes the step up
	da := newDualAverager(0.1)
	var step float64
	for i := 0; i < 200; i++ {
		step = da.update(1.0)
	}
	assert.True(step > 0.1, "step %v should have grown", step)

	// Consistently rejected proposals shrink it
	da = newDualAverager(0.1)
	for i := 0; i < 200; i++ {
		step = da.update(0.0)
	}
	assert.True(step < 0.1, "step %v should have shrunk", step)
}

func TestDualAveragerFinalize(t *testing.T) {
	assert := assert.New(t)

	da := newDualAverager(0.1)
	for i := 0; i < 500; i++ {
		da.update(0.8) // exactly on target
	}
	final := da.finalize()
	assert.True(final > 0 && !math.IsInf(final, 0) && !math.IsNaN(final))
	// On-target acceptance keeps the step near where it started
	assert.InDelta(0.1, final, 0.1)
}

func TestMassEstimatorVariance(t *testing.T) {
	assert := assert.New(t)

	me := newMassEstimator(2)

	// First dimension constant, second alternating around 0 with variance
	// 100^2 * n/(n-1)-ish; the estimate is regularized toward 1 but with
	// n=1000 the shrinkage is small.
	for i := 0; i < 1000; i++ {
		x := 100.0
		if i%2 == 1 {
			x = -100.0
		}
		me.observe([]float64{3.0, x})
	}

	est := me.estimate()
	assert.NotNil(est)
	// Constant dimension: sample variance 0, the regularizer keeps it positive
	assert.True(est[0] > 0)
	assert.True(est[0] < 0.01)
	// Alternating +-100: sample variance about 10010
	assert.InDelta(10010.0, est[1], 100.0)
}

func TestMassEstimatorNeedsSamples(t *testing.T) {
	assert := assert.New(t)

	me := newMassEstimator(1)
	for i := 0; i < 9; i++ {
		me.observe([]float64{float64(i)})
	}
	assert.Nil(me.estimate())

	me.observe([]float64{9})
	assert.NotNil(me.estimate())
}
