package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bayou-stats/bayou/diag"
	"github.com/bayou-stats/bayou/sampler"
)

// smallRun points the shared sampling flags at a fast configuration and
// restores them when the test finishes.
func smallRun(t *testing.T) {
	t.Helper()
	oldD, oldC, oldW, oldS, oldH := drawCount, chainCount, warmupCount, randomSeed, hpdMass
	drawCount, chainCount, warmupCount, randomSeed, hpdMass = 200, 2, 200, 1, 0.9
	t.Cleanup(func() {
		drawCount, chainCount, warmupCount, randomSeed, hpdMass = oldD, oldC, oldW, oldS, oldH
	})
}

func TestSamplingConfigFromFlags(t *testing.T) {
	assert := assert.New(t)
	smallRun(t)

	cfg := samplingConfig()
	assert.Equal(200, cfg.Draws)
	assert.Equal(2, cfg.Chains)
	assert.Equal(200, cfg.Warmup)
	assert.Equal(int64(1), cfg.Seed)
	assert.NoError(cfg.Check())
}

func TestRunBest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping posterior sampling in short mode")
	}
	assert := assert.New(t)
	smallRun(t)

	bestDataFile = filepath.Join("testdata", "iq.csv")
	bestGroupCol = "group"
	bestValueCol = "iq"
	bestLabelFile = ""

	var buf bytes.Buffer
	assert.NoError(runBest(&buf))

	out := buf.String()
	assert.Contains(out, "variable")
	assert.Contains(out, "mu[0]")
	assert.Contains(out, "nu")
	assert.Contains(out, "diff_mean_drug_placebo")
	assert.Contains(out, "effect_drug_placebo")
	assert.NotContains(out, "WARNING")
}

func TestRunBestWithDictionary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping posterior sampling in short mode")
	}
	assert := assert.New(t)
	smallRun(t)
	drawCount, warmupCount = 100, 100

	dir := t.TempDir()

	csv := "arm,score\n"
	for i := 0; i < 6; i++ {
		csv += "0,101\n0,103\n1,99\n1,98\n"
	}
	csvFile := filepath.Join(dir, "coded.csv")
	assert.NoError(os.WriteFile(csvFile, []byte(csv), 0o644))

	dictFile := filepath.Join(dir, "dict.yaml")
	dict := "arm:\n  - code: 0\n    label: drug\n  - code: 1\n    label: placebo\n"
	assert.NoError(os.WriteFile(dictFile, []byte(dict), 0o644))

	bestDataFile = csvFile
	bestGroupCol = "arm"
	bestValueCol = "score"
	bestLabelFile = dictFile
	defer func() { bestLabelFile = "" }()

	var buf bytes.Buffer
	assert.NoError(runBest(&buf))
	assert.Contains(buf.String(), "diff_mean_drug_placebo")
}

func TestRunBestMissingFile(t *testing.T) {
	assert := assert.New(t)
	smallRun(t)

	bestDataFile = filepath.Join(t.TempDir(), "nope.csv")
	bestValueCol = "iq"
	bestLabelFile = ""

	var buf bytes.Buffer
	assert.Error(runBest(&buf))
}

func TestReportSummary(t *testing.T) {
	assert := assert.New(t)

	tr, err := sampler.NewTrace(
		[]string{"x"},
		[][][]float64{{{1}}, {{2}}, {{3}}},
		[]sampler.ChainStat{
			{Chain: 0, Accepted: 80, Proposed: 100},
			{Chain: 1, Suspect: true, Accepted: 2, Proposed: 100, Divergences: 30},
			{Chain: 2, Failed: true, Proposed: 100},
		},
	)
	assert.NoError(err)

	rows := []diag.VarSummary{
		{Name: "x", Mean: 1.5, SD: 0.5, HPDLow: 1.0, HPDHigh: 2.0, Rhat: 1.01},
	}

	var buf bytes.Buffer
	reportSummary(&buf, tr, rows)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(4, len(lines)) // header, one row, two warnings
	assert.Contains(lines[0], "rhat")
	assert.Contains(lines[1], "1.5000")
	assert.Contains(lines[2], "chain 1 is suspect")
	assert.Contains(lines[3], "chain 2 FAILED")
}
