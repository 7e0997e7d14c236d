package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/headline-goat/abverdict/internal/report"
	"github.com/headline-goat/abverdict/internal/store"
	"github.com/headline-goat/abverdict/internal/tally"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		name     string
		variants string
		dbPath   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [events-file]",
		Short: "Analyze an exported event log",
		Long: `Aggregate an event export (CSV or JSON) into per-variant counts and
compare every challenger against control (variant 0).

Views and conversions are counted once per visitor.

Examples:
  abv analyze hero-data.csv --variants "Ship Faster,Build Better"
  abv analyze hero-data.json --json
  abv analyze --db ./hlg.db --name hero`,
		Args: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			names := splitNames(variants)

			var events []tally.Event
			if dbPath != "" {
				if name == "" {
					return errors.New("--name is required with --db")
				}
				var err error
				events, names, err = readStore(cmd.Context(), dbPath, name, names)
				if err != nil {
					return err
				}
			} else {
				path := args[0]
				var err error
				if events, err = tally.ReadFile(path); err != nil {
					return err
				}
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}
			}

			t, err := tally.Aggregate(events)
			if err != nil {
				return err
			}
			if t.Duplicates > 0 || t.OrphanConversions > 0 {
				a.logger.Info("ignored events",
					zap.Int("duplicates", t.Duplicates),
					zap.Int("orphan_conversions", t.OrphanConversions),
				)
			}

			test := report.Test{Name: name, Variants: names}

			r, err := report.NewAnalyzer(a.calc, a.logger).Analyze(cmd.Context(), test, t.Variants, a.cfg.Statistics)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			printReport(cmd, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "test name (default: file name)")
	cmd.Flags().StringVar(&dbPath, "db", getEnvOrDefault("ABV_DB_PATH", ""), "read events from a tracking database instead of a file")
	cmd.Flags().StringVar(&variants, "variants", "", "comma-separated variant names, control first")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")

	return cmd
}

// readStore loads a test's events from the tracking database. Names given on
// the command line win over the stored ones.
func readStore(ctx context.Context, dbPath, name string, names []string) ([]tally.Event, []string, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	if names == nil {
		stored, err := s.Variants(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, nil, fmt.Errorf("test '%s' not found", name)
			}
			return nil, nil, err
		}
		names = stored
	}

	events, err := s.Events(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	return events, names, nil
}

func splitNames(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func printReport(cmd *cobra.Command, r *report.Report) {
	w := cmd.OutOrStdout()

	// Print header
	fmt.Fprintf(w, "TEST: %s\n", r.Test)
	fmt.Fprintf(w, "REPORT: %s\n", r.ID)
	fmt.Fprintln(w)

	// Print table header
	fmt.Fprintln(w, "VARIANT           VIEWS    CONVERSIONS  RATE     95% CI")
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, v := range r.Variants {
		indicator := ""
		if v.Index == r.LeadingVariant && len(r.Variants) > 1 && v.Rate > 0 {
			indicator = " ← LEADING"
		}

		ciStr := fmt.Sprintf("[%.1f%%, %.1f%%]", v.CILower*100, v.CIUpper*100)
		if v.Views == 0 {
			ciStr = "N/A"
		}

		fmt.Fprintf(w, "%-16s  %-7d  %-11d  %-7s  %s%s\n",
			truncate(v.Name, 16),
			v.Views,
			v.Conversions,
			formatPercent(v.Rate),
			ciStr,
			indicator,
		)
	}

	if len(r.Variants) < 2 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Only one variant: nothing to compare")
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "VS %-14s  P(BEAT)  LIFT      Z-CONF   DECISION\n", truncate(r.Variants[0].Name, 14))
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, v := range r.Variants[1:] {
		fmt.Fprintf(w, "%-16s  %-7s  %-8s  %-7s  %s\n",
			truncate(v.Name, 16),
			fmt.Sprintf("%.1f%%", v.Bayesian.ProbabilityBeatControl*100),
			fmt.Sprintf("%+.1f%%", v.Bayesian.ExpectedLift),
			fmt.Sprintf("%.1f%%", v.Frequentist.Confidence),
			v.Decision.Reason,
		)
	}

	fmt.Fprintln(w)
	switch r.Action {
	case report.ActionPromote:
		winner := r.Variants[*r.Winner]
		fmt.Fprintf(w, "Recommendation: promote \"%s\" (%.1f%% probability of beating control)\n",
			winner.Name, winner.Bayesian.ProbabilityBeatControl*100)
	case report.ActionStop:
		fmt.Fprintln(w, "Recommendation: stop, no challenger is likely to beat control")
	default:
		fmt.Fprintln(w, "Recommendation: keep testing, not enough evidence yet")
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
