package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/abverdict/internal/stats"
)

func newSampleSizeCmd(a *app) *cobra.Command {
	var (
		baseline   float64
		mde        float64
		confidence float64
		power      float64
	)

	cmd := &cobra.Command{
		Use:   "sample-size",
		Short: "Visitors needed per variant to detect an effect",
		Long: `Estimate the per-variant sample size for a two-proportion test.

The minimum detectable effect is relative, in percent of the baseline.

Example:
  abv sample-size --baseline 0.10 --mde 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := stats.CalculateRequiredSampleSize(baseline, mde, confidence, power)
			if err != nil {
				return err
			}
			a.logger.Debug("sample size computed",
				zap.Float64("baseline", baseline),
				zap.Float64("mde", mde),
				zap.Int("per_variant", n),
			)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Required sample size per variant: %d\n", n)
			fmt.Fprintf(w, "Total for two variants:           %d\n", 2*n)
			return nil
		},
	}

	cmd.Flags().Float64Var(&baseline, "baseline", 0, "baseline conversion rate (0-1)")
	cmd.Flags().Float64Var(&mde, "mde", 0, "minimum detectable effect in percent")
	cmd.Flags().Float64Var(&confidence, "confidence", stats.DefaultConfidence, "confidence level")
	cmd.Flags().Float64Var(&power, "power", stats.DefaultPower, "statistical power")
	cmd.MarkFlagRequired("baseline")
	cmd.MarkFlagRequired("mde")

	return cmd
}
