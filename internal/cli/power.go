package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/abverdict/internal/stats"
)

func newPowerCmd(a *app) *cobra.Command {
	var (
		sampleSize int
		baseline   float64
		effect     float64
		confidence float64
	)

	cmd := &cobra.Command{
		Use:   "power",
		Short: "Power of a test with a given sample size",
		Long: `Estimate the probability of detecting a relative effect (percent)
with the given number of visitors per variant.

Example:
  abv power --sample-size 3843 --baseline 0.10 --effect 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := stats.CalculatePower(sampleSize, baseline, effect, confidence)
			if err != nil {
				return err
			}
			a.logger.Debug("power computed",
				zap.Int("sample_size", sampleSize),
				zap.Float64("power", p),
			)

			fmt.Fprintf(cmd.OutOrStdout(), "Power: %.1f%%\n", p*100)
			return nil
		},
	}

	cmd.Flags().IntVar(&sampleSize, "sample-size", 0, "visitors per variant")
	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate (0-1)")
	cmd.Flags().Float64Var(&effect, "effect", 0, "relative effect in percent")
	cmd.Flags().Float64Var(&confidence, "confidence", stats.DefaultConfidence, "confidence level")
	cmd.MarkFlagRequired("sample-size")
	cmd.MarkFlagRequired("baseline")
	cmd.MarkFlagRequired("effect")

	return cmd
}
