package sampler

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bayou-stats/bayou/buffer"
	"github.com/bayou-stats/bayou/model"
	"github.com/bayou-stats/bayou/rand"
)

const (
	// seedStride separates per-chain seed streams derived from the base seed
	seedStride = int64(1000003)

	// healthWindow is how many recent iterations feed the acceptance window
	healthWindow = 100

	// suspectAcceptFloor: a full window below this acceptance rate marks the
	// chain Suspect (acceptance collapse).
	suspectAcceptFloor = 0.05
)

// chain is one independent sampling sequence. Chains share the (immutable)
// model and nothing else, so they run embarrassingly parallel.
type chain struct {
	id     int
	mod    *model.Model
	cfg    Config
	kern   *hmcKernel
	log    *zap.Logger
	window *buffer.CircularFloat

	draws [][]float64
	stat  ChainStat
}

func newChain(id int, mod *model.Model, cfg Config, logger *zap.Logger) (*chain, error) {
	gen, err := rand.NewGenerator(cfg.Seed + int64(id)*seedStride)
	if err != nil {
		return nil, errors.Wrapf(err, "Could not create generator for chain %d", id)
	}

	return &chain{
		id:     id,
		mod:    mod,
		cfg:    cfg,
		kern:   newHMCKernel(mod, gen),
		log:    logger.With(zap.Int("chain", id)),
		window: buffer.NewCircularFloat(healthWindow),
		draws:  make([][]float64, 0, cfg.Draws),
		stat:   ChainStat{Chain: id, LastValid: -1},
	}, nil
}

// initPosition jitters the model's starting center until the density is
// finite. A center that never becomes finite is left as-is: every proposal
// will be rejected and the chain reports itself Failed.
func (c *chain) initPosition() ([]float64, float64) {
	center := c.mod.InitCenter()

	z := make([]float64, len(center))
	var lp float64
	for try := 0; try < 100; try++ {
		for i, ci := range center {
			z[i] = ci + 0.1*c.kern.gen.NormFloat64()
		}
		lp = c.mod.LogProb(z)
		if !math.IsInf(lp, -1) && !math.IsNaN(lp) {
			return z, lp
		}
	}

	c.log.Warn("No finite starting density found", zap.Float64("logProb", lp))
	return z, lp
}

// run executes warmup then collection. It only returns an error on context
// cancellation; sampling trouble is recorded in the chain stats instead.
func (c *chain) run(ctx context.Context) error {
	z, lp := c.initPosition()

	// Warmup: dual-averaging step size the whole phase, inverse-metric
	// estimation from the middle half, applied at the three-quarter mark so
	// the step can re-tune under the new metric.
	da := newDualAverager(c.kern.step)
	me := newMassEstimator(c.mod.Dim())
	massLo := c.cfg.Warmup / 4
	massHi := (3 * c.cfg.Warmup) / 4

	for i := 0; i < c.cfg.Warmup; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		st := c.kern.Transition(z, lp)
		z, lp = st.Z, st.LogProb

		c.kern.step = da.update(st.Alpha)
		if i >= massLo && i < massHi {
			me.observe(z)
		}
		if i == massHi-1 {
			if est := me.estimate(); est != nil {
				c.kern.invMass = est
			}
		}
	}
	if c.cfg.Warmup > 0 {
		c.kern.step = da.finalize()
	}
	c.log.Debug("Warmup complete", zap.Float64("step", c.kern.step))

	// Collection
	for i := 0; i < c.cfg.Draws; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		st := c.kern.Transition(z, lp)
		z, lp = st.Z, st.LogProb

		c.stat.Proposed++
		if st.Accepted {
			c.stat.Accepted++
			c.window.Add(1.0)
		} else {
			c.window.Add(0.0)
		}
		if st.Diverged {
			c.stat.Divergences++
		}

		c.draws = append(c.draws, c.mod.Values(z))
		if !math.IsInf(lp, -1) && !math.IsNaN(lp) {
			c.stat.LastValid = i
		}

		if c.window.Full() && c.window.Mean() < suspectAcceptFloor {
			c.stat.Suspect = true
		}
	}

	c.stat.Retained = len(c.draws)
	if c.stat.LastValid < 0 {
		c.stat.Failed = true
	}
	// Heavy divergence also taints the draws
	if c.stat.Divergences*5 > c.cfg.Draws {
		c.stat.Suspect = true
	}

	c.log.Debug("Collection complete",
		zap.Int("retained", c.stat.Retained),
		zap.Float64("acceptRate", c.stat.AcceptRate()),
		zap.Int("divergences", c.stat.Divergences),
		zap.Bool("suspect", c.stat.Suspect),
		zap.Bool("failed", c.stat.Failed),
	)

	return nil
}

// Run samples the model's posterior under the given configuration and
// returns the assembled Trace. Chains execute in parallel, one goroutine
// each; the only shared step is assembling the Trace after all chains
// finish. Cancellation via ctx is coarse-grained: chains stop between
// iterations and the whole run is discarded.
//
// The run fails only if the configuration or model is unusable, the context
// is canceled, or every chain failed to produce a single valid draw (in
// which case the error is a *RunError carrying per-chain detail).
func Run(ctx context.Context, m *model.Model, cfg Config, logger *zap.Logger) (*Trace, error) {
	if m == nil {
		return nil, errors.New("No model supplied")
	}
	if err := cfg.Check(); err != nil {
		return nil, errors.Wrap(err, "Invalid sampling configuration")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	chains := make([]*chain, cfg.Chains)
	for i := range chains {
		ch, err := newChain(i, m, cfg, logger)
		if err != nil {
			return nil, err
		}
		chains[i] = ch
	}

	runErrs := make([]error, cfg.Chains)
	var wg sync.WaitGroup
	for i := range chains {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			runErrs[idx] = chains[idx].run(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range runErrs {
		if err != nil {
			return nil, errors.Wrap(err, "Sampling aborted")
		}
	}

	draws := make([][][]float64, cfg.Chains)
	stats := make([]ChainStat, cfg.Chains)
	allFailed := true
	for i, ch := range chains {
		draws[i] = ch.draws
		stats[i] = ch.stat
		if !ch.stat.Failed {
			allFailed = false
		}
	}

	if allFailed {
		return nil, &RunError{Stats: stats}
	}

	tr, err := NewTrace(m.ComponentNames(), draws, stats)
	if err != nil {
		return nil, err
	}

	logger.Info("Sampling complete",
		zap.String("model", m.Name),
		zap.Int("chains", cfg.Chains),
		zap.Int("draws", cfg.Draws),
		zap.Int("healthy", len(tr.Healthy())),
	)

	return tr, nil
}
