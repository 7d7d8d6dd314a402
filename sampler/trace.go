package sampler

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ChainStat records per-chain health gathered during collection. A Suspect
// chain produced draws but its behavior (collapsed acceptance, heavy
// divergence) makes them untrustworthy; a Failed chain produced no valid
// retained draw at all.
type ChainStat struct {
	Chain       int
	Retained    int
	Accepted    int64
	Proposed    int64
	Divergences int
	LastValid   int // index of the last retained draw with finite density, -1 if none
	Suspect     bool
	Failed      bool
}

// AcceptRate is the whole-collection acceptance rate
func (cs ChainStat) AcceptRate() float64 {
	if cs.Proposed < 1 {
		return 0.0
	}
	return float64(cs.Accepted) / float64(cs.Proposed)
}

// Trace is the sampling output: for every named component (scalar variables
// by name, vector components as name[i], deterministics by name) an ordered
// sequence of retained draws per chain. It is never mutated after Run
// returns; consumers treat returned slices as read-only.
type Trace struct {
	Names []string
	Stats []ChainStat

	draws [][][]float64 // [chain][draw][component]
	index map[string]int
}

// NewTrace assembles a trace from per-chain draw sequences and their chain
// stats. Run uses it internally; it is exported so saved results can be
// reconstituted for diagnostics. Every draw must carry one value per name.
func NewTrace(names []string, draws [][][]float64, stats []ChainStat) (*Trace, error) {
	if len(draws) != len(stats) {
		return nil, errors.Errorf("Have %d chains of draws but %d chain stats", len(draws), len(stats))
	}
	if len(draws) < 1 {
		return nil, errors.New("Trace needs at least one chain")
	}
	for ci, ds := range draws {
		for di, d := range ds {
			if len(d) != len(names) {
				return nil, errors.Errorf("Chain %d draw %d has %d components, want %d", ci, di, len(d), len(names))
			}
		}
	}

	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return &Trace{
		Names: names,
		Stats: stats,
		draws: draws,
		index: idx,
	}, nil
}

// NumChains returns the number of chains in the trace
func (t *Trace) NumChains() int {
	return len(t.draws)
}

// NumDraws returns the retained draws per chain
func (t *Trace) NumDraws() int {
	if len(t.draws) < 1 {
		return 0
	}
	return len(t.draws[0])
}

// Get returns the sampled sequence for one named component, one slice per
// chain. The slices alias trace storage: read-only.
func (t *Trace) Get(name string) ([][]float64, error) {
	ci, ok := t.index[name]
	if !ok {
		return nil, errors.Errorf("No component %s in trace (have %s)", name, strings.Join(t.Names, ", "))
	}

	out := make([][]float64, len(t.draws))
	for chain, ds := range t.draws {
		series := make([]float64, len(ds))
		for i, d := range ds {
			series[i] = d[ci]
		}
		out[chain] = series
	}
	return out, nil
}

// Draw returns the complete value vector of one retained draw
func (t *Trace) Draw(chain, i int) ([]float64, error) {
	if chain < 0 || chain >= len(t.draws) {
		return nil, errors.Errorf("No chain %d in trace", chain)
	}
	if i < 0 || i >= len(t.draws[chain]) {
		return nil, errors.Errorf("No draw %d in chain %d", i, chain)
	}
	return t.draws[chain][i], nil
}

// Healthy returns the indexes of chains that are neither failed nor suspect
func (t *Trace) Healthy() []int {
	var out []int
	for i, cs := range t.Stats {
		if !cs.Failed && !cs.Suspect {
			out = append(out, i)
		}
	}
	return out
}

// RunError is returned when every chain failed to produce valid draws. It
// carries the per-chain stats so the caller can see which chains died and
// where.
type RunError struct {
	Stats []ChainStat
}

func (e *RunError) Error() string {
	parts := make([]string, len(e.Stats))
	for i, cs := range e.Stats {
		parts[i] = fmt.Sprintf("chain %d: last valid draw %d, %d/%d accepted, %d divergences",
			cs.Chain, cs.LastValid, cs.Accepted, cs.Proposed, cs.Divergences)
	}
	return fmt.Sprintf("all %d chains failed (%s)", len(e.Stats), strings.Join(parts, "; "))
}
