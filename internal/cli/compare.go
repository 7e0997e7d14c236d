package cli

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/manifoldco/promptui"
	mstats "github.com/montanaflynn/stats"
	"github.com/spf13/cobra"

	"github.com/headline-goat/abverdict/internal/stats"
)

type compareOutput struct {
	Result   stats.BayesianTestResult `json:"result"`
	Decision stats.StopDecision       `json:"decision"`
	Runs     *runSummary              `json:"runs,omitempty"`
}

// runSummary describes how much the Monte Carlo estimate moves across seeds.
type runSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func newCompareCmd(a *app) *cobra.Command {
	var (
		control     string
		challenger  string
		asJSON      bool
		interactive bool
		runs        int
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Probability that a challenger beats control",
		Long: `Compare a challenger against control using Beta posteriors.

Counts are given as conversions/trials.

Example:
  abv compare --control 150/1000 --challenger 200/1000
  abv compare --control 150/1000 --challenger 160/1000 --runs 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				var err error
				if control, err = promptCounts("Control (conversions/trials)", control); err != nil {
					return err
				}
				if challenger, err = promptCounts("Challenger (conversions/trials)", challenger); err != nil {
					return err
				}
			}
			if control == "" || challenger == "" {
				return errors.New("both --control and --challenger are required")
			}
			if runs < 1 {
				return fmt.Errorf("invalid --runs %d: must be at least 1", runs)
			}

			controlCounts, err := countsFlag("control", control)
			if err != nil {
				return err
			}
			challengerCounts, err := countsFlag("challenger", challenger)
			if err != nil {
				return err
			}

			result, err := a.calc.CompareVariants(controlCounts, challengerCounts, a.cfg.Statistics)
			if err != nil {
				return err
			}
			out := compareOutput{
				Result:   result,
				Decision: stats.ShouldStopEarly(result),
			}

			if runs > 1 {
				summary, err := a.repeat(controlCounts, challengerCounts, runs)
				if err != nil {
					return err
				}
				out.Runs = summary
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printCompare(cmd, a, controlCounts, challengerCounts, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&control, "control", "", "control counts, e.g. 150/1000")
	cmd.Flags().StringVar(&challenger, "challenger", "", "challenger counts, e.g. 200/1000")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for counts")
	cmd.Flags().IntVar(&runs, "runs", 1, "repeat with this many seeds and summarise the spread")

	return cmd
}

// repeat reruns the comparison with consecutive seeds starting from the
// configured one, or a random one when unseeded.
func (a *app) repeat(control, challenger stats.ConversionCounts, runs int) (*runSummary, error) {
	base := rand.Uint64()
	if a.cfg.Seed != nil {
		base = *a.cfg.Seed
	}
	opts, err := a.cfg.CalculatorOptions()
	if err != nil {
		return nil, err
	}

	probs := make(mstats.Float64Data, 0, runs)
	for i := 0; i < runs; i++ {
		calc := stats.NewCalculator(append(opts, stats.WithSeed(base+uint64(i)))...)
		result, err := calc.CompareVariants(control, challenger, a.cfg.Statistics)
		if err != nil {
			return nil, err
		}
		probs = append(probs, result.ProbabilityBeatControl)
	}

	summary := &runSummary{Count: runs}
	if summary.Mean, err = probs.Mean(); err != nil {
		return nil, fmt.Errorf("failed to summarise runs: %w", err)
	}
	if summary.StdDev, err = probs.StandardDeviationSample(); err != nil {
		return nil, fmt.Errorf("failed to summarise runs: %w", err)
	}
	if summary.Min, err = probs.Min(); err != nil {
		return nil, fmt.Errorf("failed to summarise runs: %w", err)
	}
	if summary.Max, err = probs.Max(); err != nil {
		return nil, fmt.Errorf("failed to summarise runs: %w", err)
	}
	return summary, nil
}

func countsFlag(name, value string) (stats.ConversionCounts, error) {
	conversions, trials, err := parseCounts(value)
	if err != nil {
		return stats.ConversionCounts{}, fmt.Errorf("--%s: %w", name, err)
	}
	return stats.NewConversionCounts(name, conversions, trials)
}

func promptCounts(label, current string) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: current,
		Validate: func(input string) error {
			_, _, err := parseCounts(input)
			return err
		},
	}

	value, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}
	return value, nil
}

func printCompare(cmd *cobra.Command, a *app, control, challenger stats.ConversionCounts, out compareOutput) {
	w := cmd.OutOrStdout()
	result := out.Result
	policy := a.cfg.Statistics

	fmt.Fprintf(w, "CONTROL      %d/%d  %s\n", control.Conversions(), control.Trials(), formatPercent(rate(control)))
	fmt.Fprintf(w, "CHALLENGER   %d/%d  %s\n", challenger.Conversions(), challenger.Trials(), formatPercent(rate(challenger)))
	fmt.Fprintln(w)

	if control.Trials() < policy.MinimumSampleSize || challenger.Trials() < policy.MinimumSampleSize {
		fmt.Fprintf(w, "Not enough data: each variant needs at least %d trials\n", policy.MinimumSampleSize)
	} else {
		fmt.Fprintf(w, "P(challenger beats control): %.1f%%\n", result.ProbabilityBeatControl*100)
		fmt.Fprintf(w, "Expected lift:               %+.2f%%\n", result.ExpectedLift)
		fmt.Fprintf(w, "95%% credible interval:       [%.1f%%, %.1f%%]\n",
			result.CredibleInterval.Lower*100, result.CredibleInterval.Upper*100)
		fmt.Fprintf(w, "Significant:                 %s (threshold %.0f%%, min effect %.1f%%)\n",
			yesNo(result.IsSignificant), policy.ConfidenceThreshold*100, policy.MinimumDetectableEffect)
	}
	fmt.Fprintf(w, "Decision:                    %s\n", out.Decision.Reason)

	if s := out.Runs; s != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Across %d runs: mean %.2f%%, stddev %.2f%%, range [%.2f%%, %.2f%%]\n",
			s.Count, s.Mean*100, s.StdDev*100, s.Min*100, s.Max*100)
	}
}

func rate(c stats.ConversionCounts) float64 {
	if c.Trials() == 0 {
		return 0
	}
	return float64(c.Conversions()) / float64(c.Trials())
}
