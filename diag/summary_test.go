package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bayou-stats/bayou/sampler"
)

func gridChain(n int, offset float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(i%10) + offset}
	}
	return out
}

func TestSummarizeBasics(t *testing.T) {
	assert := assert.New(t)

	tr, err := sampler.NewTrace(
		[]string{"x"},
		[][][]float64{gridChain(100, 0), gridChain(100, 0)},
		[]sampler.ChainStat{{Chain: 0}, {Chain: 1}},
	)
	assert.NoError(err)

	sums, err := Summarize(tr, 0.9)
	assert.NoError(err)
	assert.Equal(1, len(sums))

	s := sums[0]
	assert.Equal("x", s.Name)
	assert.InDelta(4.5, s.Mean, 1e-12) // mean of 0..9 repeated
	assert.InDelta(2.88, s.SD, 0.01)
	assert.True(s.HPDLow >= 0 && s.HPDHigh <= 9)
	assert.InDelta(1.0, s.Rhat, 0.02)
}

func TestSummarizeExcludesFailedChains(t *testing.T) {
	assert := assert.New(t)

	// The failed chain sits at a wild offset; excluding it keeps the mean
	// at the healthy chains' value.
	tr, err := sampler.NewTrace(
		[]string{"x"},
		[][][]float64{gridChain(100, 0), gridChain(100, 1000)},
		[]sampler.ChainStat{{Chain: 0}, {Chain: 1, Failed: true}},
	)
	assert.NoError(err)

	sums, err := Summarize(tr, 0.9)
	assert.NoError(err)
	assert.InDelta(4.5, sums[0].Mean, 1e-12)
}

func TestSummarizeKeepsSuspectChains(t *testing.T) {
	assert := assert.New(t)

	tr, err := sampler.NewTrace(
		[]string{"x"},
		[][][]float64{gridChain(100, 0), gridChain(100, 10)},
		[]sampler.ChainStat{{Chain: 0}, {Chain: 1, Suspect: true}},
	)
	assert.NoError(err)

	// Suspect draws still count: pooled mean covers both chains
	sums, err := Summarize(tr, 0.9)
	assert.NoError(err)
	assert.InDelta(9.5, sums[0].Mean, 1e-12)
}

func TestSummarizeIdempotent(t *testing.T) {
	assert := assert.New(t)

	tr, err := sampler.NewTrace(
		[]string{"a", "b"},
		[][][]float64{gridChain2(100, 0), gridChain2(100, 3)},
		[]sampler.ChainStat{{Chain: 0}, {Chain: 1}},
	)
	assert.NoError(err)

	first, err := Summarize(tr, 0.95)
	assert.NoError(err)
	second, err := Summarize(tr, 0.95)
	assert.NoError(err)
	assert.Equal(first, second)
}

func gridChain2(n int, offset float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(i%10) + offset, float64(i%7) - offset}
	}
	return out
}

func TestSummarizeAllFailed(t *testing.T) {
	assert := assert.New(t)

	tr, err := sampler.NewTrace(
		[]string{"x"},
		[][][]float64{gridChain(100, 0)},
		[]sampler.ChainStat{{Chain: 0, Failed: true}},
	)
	assert.NoError(err)

	_, err = Summarize(tr, 0.9)
	assert.Error(err)

	_, err = Summarize(nil, 0.9)
	assert.Error(err)
}
