package cmd

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bayou-stats/bayou/analysis"
	"github.com/bayou-stats/bayou/data"
	"github.com/bayou-stats/bayou/diag"
	"github.com/bayou-stats/bayou/sampler"
)

var composeDataFile string
var composeCols []string
var composeAlpha float64

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Dirichlet-Multinomial composition estimation over CSV count columns",
	Long: `compose totals the named count columns and fits a Dirichlet-Multinomial
model over the composition, reporting each component's posterior share.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompose(cmd.OutOrStdout())
	},
}

func init() {
	composeCmd.Flags().StringVarP(&composeDataFile, "data", "f", "", "CSV dataset to read")
	composeCmd.Flags().StringSliceVarP(&composeCols, "cols", "k", nil, "Count columns forming the composition")
	composeCmd.Flags().Float64VarP(&composeAlpha, "alpha", "a", 1.0, "Dirichlet prior concentration per component")
	composeCmd.MarkFlagRequired("data")
	composeCmd.MarkFlagRequired("cols")
}

func runCompose(out io.Writer) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ds, err := data.FromFile(composeDataFile)
	if err != nil {
		return err
	}

	if len(composeCols) < 2 {
		return errors.Errorf("Composition needs at least 2 count columns, have %d", len(composeCols))
	}

	counts := make([]float64, len(composeCols))
	alpha := make([]float64, len(composeCols))
	for i, col := range composeCols {
		vals, err := ds.Float(col)
		if err != nil {
			return err
		}
		for _, v := range vals {
			counts[i] += v
		}
		alpha[i] = composeAlpha
	}
	logger.Info("Composition totals",
		zap.String("dataset", ds.Name),
		zap.Strings("cols", composeCols),
		zap.Float64s("counts", counts),
	)

	mod, err := analysis.Composition(ds.Name, counts, alpha)
	if err != nil {
		return err
	}

	tr, err := sampler.Run(context.Background(), mod, samplingConfig(), logger)
	if err != nil {
		return err
	}

	rows, err := diag.Summarize(tr, hpdMass)
	if err != nil {
		return err
	}

	reportSummary(out, tr, rows)
	return nil
}
