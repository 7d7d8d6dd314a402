package sampler

import (
	"github.com/pkg/errors"
)

// Config controls one sampling run
type Config struct {
	Draws  int   // Retained draws per chain
	Chains int   // Independent chains
	Warmup int   // Adaptation iterations discarded before collection
	Seed   int64 // Base seed; chain i derives its own stream from it
}

// DefaultConfig matches the run sizes the analyses were designed around
func DefaultConfig() Config {
	return Config{
		Draws:  2000,
		Chains: 2,
		Warmup: 1000,
		Seed:   1,
	}
}

// Check returns an error if the configuration is unusable
func (c Config) Check() error {
	if c.Draws < 1 {
		return errors.Errorf("Draw count must be positive, have %d", c.Draws)
	}
	if c.Chains < 1 {
		return errors.Errorf("Chain count must be positive, have %d", c.Chains)
	}
	if c.Warmup < 0 {
		return errors.Errorf("Warmup must be non-negative, have %d", c.Warmup)
	}
	return nil
}

// Step is the outcome of one transition kernel iteration
type Step struct {
	Z        []float64 // New position (the previous one when rejected)
	LogProb  float64
	Alpha    float64 // Metropolis acceptance probability, for adaptation
	Accepted bool
	Diverged bool
}
