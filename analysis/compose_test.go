package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bayou-stats/bayou/sampler"
)

func TestCompositionValidation(t *testing.T) {
	assert := assert.New(t)

	_, err := Composition("bad", []float64{5}, nil)
	assert.Error(err)

	_, err = Composition("bad", []float64{5, 3}, []float64{1, 1, 1})
	assert.Error(err)

	_, err = Composition("bad", []float64{5, -1}, nil)
	assert.Error(err)

	_, err = Composition("bad", []float64{0, 0}, nil)
	assert.Error(err)
}

func TestCompositionModelShape(t *testing.T) {
	assert := assert.New(t)

	m, err := Composition("shares", []float64{30, 10, 10}, nil)
	assert.NoError(err)
	assert.Equal([]string{"p[0]", "p[1]", "p[2]"}, m.ComponentNames())
	assert.Equal(2, m.Dim()) // K-1 unconstrained dimensions
}

// With a flat Dirichlet prior the posterior over proportions is
// Dirichlet(1+counts), so component means are (1+k_i)/(K+n).
func TestCompositionConjugatePosterior(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping posterior sampling in short mode")
	}
	assert := assert.New(t)

	m, err := Composition("shares", []float64{30, 10, 10}, nil)
	assert.NoError(err)

	cfg := sampler.Config{Draws: 2000, Chains: 2, Warmup: 1000, Seed: 17}
	tr, err := sampler.Run(context.Background(), m, cfg, zap.NewNop())
	assert.NoError(err)

	want := []float64{31.0 / 53.0, 11.0 / 53.0, 11.0 / 53.0}
	for i, name := range []string{"p[0]", "p[1]", "p[2]"} {
		series, err := tr.Get(name)
		assert.NoError(err)
		var sum float64
		var n int
		for _, chain := range series {
			for _, p := range chain {
				assert.True(p > 0 && p < 1)
				sum += p
				n++
			}
		}
		assert.InDelta(want[i], sum/float64(n), 0.03, name)
	}

	// Every retained draw is a simplex point
	for i := 0; i < tr.NumDraws(); i++ {
		d, err := tr.Draw(0, i)
		assert.NoError(err)
		assert.InDelta(1.0, d[0]+d[1]+d[2], 1e-9)
	}
}
