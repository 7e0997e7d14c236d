package report

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/headline-goat/abverdict/internal/stats"
	"github.com/headline-goat/abverdict/internal/tally"
)

var ErrNoVariants = errors.New("test has no variants")

// Action is what the caller should do with a running test.
type Action string

const (
	ActionPromote  Action = "promote"
	ActionStop     Action = "stop"
	ActionContinue Action = "continue"
)

// Test names the variants of one experiment. Variant 0 is the control.
type Test struct {
	Name     string
	Variants []string
}

type VariantReport struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Views       int     `json:"views"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	CILower     float64 `json:"ciLower"`
	CIUpper     float64 `json:"ciUpper"`

	// Comparisons against control; nil for the control itself.
	Bayesian    *stats.BayesianTestResult `json:"bayesian,omitempty"`
	Frequentist *stats.ConfidenceResult   `json:"frequentist,omitempty"`
	Decision    *stats.StopDecision       `json:"decision,omitempty"`
}

type Report struct {
	ID             string                  `json:"id"`
	Test           string                  `json:"test"`
	Config         stats.StatisticalConfig `json:"config"`
	Variants       []VariantReport         `json:"variants"`
	LeadingVariant int                     `json:"leadingVariant"`
	Action         Action                  `json:"action"`
	Winner         *int                    `json:"winner,omitempty"`
}

// Analyzer compares every challenger of a test against its control.
type Analyzer struct {
	calc   *stats.Calculator
	logger *zap.Logger
}

func NewAnalyzer(calc *stats.Calculator, logger *zap.Logger) *Analyzer {
	if calc == nil {
		calc = stats.NewCalculator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{calc: calc, logger: logger}
}

// Analyze builds the full report for a test. Variants without events are
// reported with zero counts; comparisons run concurrently.
func (a *Analyzer) Analyze(ctx context.Context, test Test, variantStats []tally.VariantStats, cfg stats.StatisticalConfig) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	statsMap := make(map[int]tally.VariantStats)
	count := len(test.Variants)
	for _, s := range variantStats {
		statsMap[s.Variant] = s
		if s.Variant+1 > count {
			count = s.Variant + 1
		}
	}
	if count == 0 {
		return nil, ErrNoVariants
	}

	variants := make([]VariantReport, count)
	maxRate := 0.0
	leadingVariant := 0

	for i := range variants {
		stat := statsMap[i] // zero-valued if not present

		rate := 0.0
		if stat.Views > 0 {
			rate = float64(stat.Conversions) / float64(stat.Views)
		}
		ciLower, ciUpper := stats.WilsonInterval(stat.Conversions, stat.Views, stats.DefaultConfidence)

		variants[i] = VariantReport{
			Index:       i,
			Name:        variantName(test.Variants, i),
			Views:       stat.Views,
			Conversions: stat.Conversions,
			Rate:        rate,
			CILower:     ciLower,
			CIUpper:     ciUpper,
		}

		if rate > maxRate {
			maxRate = rate
			leadingVariant = i
		}
	}

	control, err := counts(variants[0])
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 1; i < count; i++ {
		v := &variants[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			challenger, err := counts(*v)
			if err != nil {
				return err
			}
			result, err := a.calc.CompareVariants(control, challenger, cfg)
			if err != nil {
				return fmt.Errorf("failed to compare %q with control: %w", v.Name, err)
			}
			confidence := stats.GetConfidence(analytics(*v), analytics(variants[0]))
			decision := stats.ShouldStopEarly(result)

			v.Bayesian = &result
			v.Frequentist = &confidence
			v.Decision = &decision
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{
		ID:             uuid.NewString(),
		Test:           test.Name,
		Config:         cfg,
		Variants:       variants,
		LeadingVariant: leadingVariant,
	}
	r.Action, r.Winner = recommend(variants)

	a.logger.Info("analyzed test",
		zap.String("report_id", r.ID),
		zap.String("test", test.Name),
		zap.Int("variants", count),
		zap.String("action", string(r.Action)),
	)

	return r, nil
}

// recommend promotes the most probable winner, stops when every challenger
// is futile and otherwise keeps the test running.
func recommend(variants []VariantReport) (Action, *int) {
	if len(variants) < 2 {
		return ActionContinue, nil
	}

	winner := -1
	futile := 0
	for i, v := range variants[1:] {
		switch v.Decision.Reason {
		case stats.ReasonWinnerFound:
			if winner < 0 || better(*v.Bayesian, *variants[winner].Bayesian) {
				winner = i + 1
			}
		case stats.ReasonFutilityStopped:
			futile++
		}
	}

	switch {
	case winner > 0:
		return ActionPromote, &winner
	case futile == len(variants)-1:
		return ActionStop, nil
	default:
		return ActionContinue, nil
	}
}

func better(a, b stats.BayesianTestResult) bool {
	if a.ProbabilityBeatControl != b.ProbabilityBeatControl {
		return a.ProbabilityBeatControl > b.ProbabilityBeatControl
	}
	return a.ExpectedLift > b.ExpectedLift
}

func counts(v VariantReport) (stats.ConversionCounts, error) {
	c, err := stats.NewConversionCounts(v.Name, v.Conversions, v.Views)
	if err != nil {
		return stats.ConversionCounts{}, fmt.Errorf("failed to read counts for %q: %w", v.Name, err)
	}
	return c, nil
}

func analytics(v VariantReport) stats.VariantAnalytics {
	return stats.VariantAnalytics{UniqueViews: v.Views, ConversionRate: v.Rate}
}

func variantName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("variant %d", i)
}
