package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bayou-stats/bayou/diag"
	"github.com/bayou-stats/bayou/sampler"
)

var verbose bool
var drawCount int
var chainCount int
var warmupCount int
var randomSeed int64
var hpdMass float64

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bayou",
	Short: "Bayesian estimation for tabular data",
	Long: `bayou fits a small family of Bayesian models to CSV data and reports
posterior summaries. Among other features:

  - A robust Student-t group comparison (BEST-style A/B/../K testing)
  - Dirichlet-Multinomial composition estimation for count columns
  - Hamiltonian MCMC with warmup adaptation and per-chain health flags
  - Split R-hat convergence checks and HPD intervals
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging (default is much more parsimonious)")
	rootCmd.PersistentFlags().IntVarP(&drawCount, "draws", "d", 2000, "Retained draws per chain")
	rootCmd.PersistentFlags().IntVarP(&chainCount, "chains", "c", 2, "Number of independent chains")
	rootCmd.PersistentFlags().IntVarP(&warmupCount, "warmup", "w", 1000, "Warmup iterations discarded before collection")
	rootCmd.PersistentFlags().Int64VarP(&randomSeed, "seed", "r", 1, "Random seed to use")
	rootCmd.PersistentFlags().Float64Var(&hpdMass, "hpd", 0.95, "Probability mass of reported HPD intervals")

	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(composeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// newLogger builds the structured logger the commands share
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// samplingConfig assembles the sampler configuration from the global flags
func samplingConfig() sampler.Config {
	return sampler.Config{
		Draws:  drawCount,
		Chains: chainCount,
		Warmup: warmupCount,
		Seed:   randomSeed,
	}
}

// reportSummary renders the per-variable posterior table plus any chain
// health warnings.
func reportSummary(out io.Writer, tr *sampler.Trace, rows []diag.VarSummary) {
	fmt.Fprintf(out, "%-28s %10s %10s %10s %10s %8s\n", "variable", "mean", "sd", "hpd-lo", "hpd-hi", "rhat")
	for _, r := range rows {
		fmt.Fprintf(out, "%-28s %10.4f %10.4f %10.4f %10.4f %8.4f\n",
			r.Name, r.Mean, r.SD, r.HPDLow, r.HPDHigh, r.Rhat)
	}

	for _, cs := range tr.Stats {
		switch {
		case cs.Failed:
			fmt.Fprintf(out, "WARNING chain %d FAILED - no valid draws (accept %d/%d)\n",
				cs.Chain, cs.Accepted, cs.Proposed)
		case cs.Suspect:
			fmt.Fprintf(out, "WARNING chain %d is suspect - accept rate %.3f, %d divergences\n",
				cs.Chain, cs.AcceptRate(), cs.Divergences)
		}
	}
}
