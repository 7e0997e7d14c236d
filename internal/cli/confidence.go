package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/abverdict/internal/stats"
)

func newConfidenceCmd(a *app) *cobra.Command {
	var (
		variant stats.VariantAnalytics
		control stats.VariantAnalytics
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "confidence",
		Short: "Two-proportion z-test between a variant and control",
		Long: `Run the frequentist z-test on unique views and conversion rates.

Rates are fractions between 0 and 1. Each side needs at least 30 views.

Example:
  abv confidence --variant-views 1000 --variant-rate 0.15 --control-views 1000 --control-rate 0.10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range []float64{variant.ConversionRate, control.ConversionRate} {
				if r < 0 || r > 1 {
					return fmt.Errorf("invalid rate %v: must be between 0 and 1", r)
				}
			}

			result := stats.GetConfidence(variant, control)
			a.logger.Debug("z-test computed",
				zap.Float64("confidence", result.Confidence),
				zap.Bool("significant", result.IsSignificant),
			)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Confidence:  %.1f%%\n", result.Confidence)
			fmt.Fprintf(w, "Significant: %s\n", yesNo(result.IsSignificant))
			return nil
		},
	}

	cmd.Flags().IntVar(&variant.UniqueViews, "variant-views", 0, "unique views of the variant")
	cmd.Flags().Float64Var(&variant.ConversionRate, "variant-rate", 0, "conversion rate of the variant (0-1)")
	cmd.Flags().IntVar(&control.UniqueViews, "control-views", 0, "unique views of control")
	cmd.Flags().Float64Var(&control.ConversionRate, "control-rate", 0, "conversion rate of control (0-1)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}
