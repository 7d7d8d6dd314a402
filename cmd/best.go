package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bayou-stats/bayou/analysis"
	"github.com/bayou-stats/bayou/data"
	"github.com/bayou-stats/bayou/diag"
	"github.com/bayou-stats/bayou/sampler"
)

var bestDataFile string
var bestGroupCol string
var bestValueCol string
var bestLabelFile string

var bestCmd = &cobra.Command{
	Use:   "best",
	Short: "Robust Bayesian group comparison over a CSV measurement column",
	Long: `best fits the robust Student-t comparison model to one numeric column
grouped by a label column, and reports posterior means, HPD intervals and
the difference/effect-size variables for every group pair.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBest(cmd.OutOrStdout())
	},
}

func init() {
	bestCmd.Flags().StringVarP(&bestDataFile, "data", "f", "", "CSV dataset to read")
	bestCmd.Flags().StringVarP(&bestGroupCol, "group", "g", "group", "Group/treatment label column")
	bestCmd.Flags().StringVarP(&bestValueCol, "value", "m", "", "Numeric measurement column")
	bestCmd.Flags().StringVarP(&bestLabelFile, "labels", "l", "", "Optional YAML label dictionary for recoding the group column")
	bestCmd.MarkFlagRequired("data")
	bestCmd.MarkFlagRequired("value")
}

func runBest(out io.Writer) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ds, err := data.FromFile(bestDataFile)
	if err != nil {
		return err
	}

	if bestLabelFile != "" {
		dict, err := data.LoadDictionary(bestLabelFile)
		if err != nil {
			return err
		}
		if err := ds.Relabel(dict, bestGroupCol); err != nil {
			return err
		}
	}

	values, groups, labels, err := ds.Grouped(bestGroupCol, bestValueCol)
	if err != nil {
		return err
	}
	logger.Info("Dataset loaded",
		zap.String("dataset", ds.Name),
		zap.Int("rows", len(values)),
		zap.Strings("groups", labels),
	)

	mod, err := analysis.Compare(ds.Name, values, groups, labels)
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
