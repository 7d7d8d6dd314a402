package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHPDUniformGrid(t *testing.T) {
	assert := assert.New(t)

	// 0..99: every 90%-window has the same width, so the scan keeps the
	// first one.
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = float64(i)
	}

	lo, hi, err := HPD(samples, 0.9)
	assert.NoError(err)
	assert.Equal(0.0, lo)
	assert.Equal(89.0, hi)
}

func TestHPDSkewedSample(t *testing.T) {
	assert := assert.New(t)

	// A tight cluster plus a long sparse tail: the narrowest interval must
	// hug the cluster and drop the tail.
	var samples []float64
	for i := 0; i < 90; i++ {
		samples = append(samples, float64(i)*0.01) // cluster in [0, 0.9)
	}
	for i := 0; i < 10; i++ {
		samples = append(samples, 50.0+float64(i)*10.0) // tail out to 140
	}

	lo, hi, err := HPD(samples, 0.8)
	assert.NoError(err)
	assert.True(lo >= 0.0)
	assert.True(hi < 1.0, "interval [%v, %v] should exclude the tail", lo, hi)
}

func TestHPDDoesNotMutateInput(t *testing.T) {
	assert := assert.New(t)

	samples := []float64{5, 1, 4, 2, 3}
	_, _, err := HPD(samples, 0.6)
	assert.NoError(err)
	assert.Equal([]float64{5, 1, 4, 2, 3}, samples)
}

func TestHPDValidation(t *testing.T) {
	assert := assert.New(t)

	_, _, err := HPD([]float64{1}, 0.9)
	assert.Error(err)

	_, _, err = HPD([]float64{1, 2, 3}, 0.0)
	assert.Error(err)
	_, _, err = HPD([]float64{1, 2, 3}, 1.0)
	assert.Error(err)

	// Tiny requests still return a usable 2-point interval
	lo, hi, err := HPD([]float64{1, 2, 3, 4}, 0.01)
	assert.NoError(err)
	assert.True(hi >= lo)
}
