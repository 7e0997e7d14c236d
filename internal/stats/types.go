package stats

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for counts or thresholds outside their domain.
var ErrInvalidArgument = errors.New("invalid argument")

// VariantObservation holds aggregated outcomes for one test arm
// (e.g. clicks over views) during the observation window.
type VariantObservation struct {
	ID        string `json:"variantId,omitempty"`
	Successes int    `json:"successes"`
	Trials    int    `json:"trials"`
}

// Rate returns successes/trials, or 0 when there are no trials.
func (o VariantObservation) Rate() float64 {
	if o.Trials == 0 {
		return 0
	}
	return float64(o.Successes) / float64(o.Trials)
}

func (o VariantObservation) validate() error {
	if o.Trials < 0 || o.Successes < 0 {
		return fmt.Errorf("%w: variant %q has negative counts (%d/%d)", ErrInvalidArgument, o.ID, o.Successes, o.Trials)
	}
	if o.Successes > o.Trials {
		return fmt.Errorf("%w: variant %q has more successes than trials (%d/%d)", ErrInvalidArgument, o.ID, o.Successes, o.Trials)
	}
	return nil
}

// ConversionCounts are raw Bernoulli conversion counts for one arm.
//
// The fields are unexported so the only way in is NewConversionCounts:
// weighted or composite engagement scores cannot be turned into counts
// and fed to the Beta-Binomial model by accident.
type ConversionCounts struct {
	id          string
	conversions int
	trials      int
}

// NewConversionCounts validates and wraps raw conversion counts.
func NewConversionCounts(id string, conversions, trials int) (ConversionCounts, error) {
	obs := VariantObservation{ID: id, Successes: conversions, Trials: trials}
	if err := obs.validate(); err != nil {
		return ConversionCounts{}, err
	}
	return ConversionCounts{id: id, conversions: conversions, trials: trials}, nil
}

func (c ConversionCounts) ID() string       { return c.id }
func (c ConversionCounts) Conversions() int { return c.conversions }
func (c ConversionCounts) Trials() int      { return c.trials }

func (c ConversionCounts) observation() VariantObservation {
	return VariantObservation{ID: c.id, Successes: c.conversions, Trials: c.trials}
}

// StatisticalConfig is the caller-supplied decision policy.
type StatisticalConfig struct {
	ConfidenceThreshold     float64 `json:"confidenceThreshold" yaml:"confidence_threshold"`
	MinimumSampleSize       int     `json:"minimumSampleSize" yaml:"minimum_sample_size"`
	MinimumDetectableEffect float64 `json:"minimumDetectableEffect" yaml:"minimum_detectable_effect"` // percent
}

// DefaultConfig returns the policy used when nothing else is configured.
func DefaultConfig() StatisticalConfig {
	return StatisticalConfig{
		ConfidenceThreshold:     0.95,
		MinimumSampleSize:       30,
		MinimumDetectableEffect: 5,
	}
}

// Validate checks the policy is usable.
func (c StatisticalConfig) Validate() error {
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold >= 1 {
		return fmt.Errorf("%w: confidence threshold %v must be in (0,1)", ErrInvalidArgument, c.ConfidenceThreshold)
	}
	if c.MinimumSampleSize < 0 {
		return fmt.Errorf("%w: minimum sample size %d is negative", ErrInvalidArgument, c.MinimumSampleSize)
	}
	return nil
}

// CredibleInterval bounds a conversion rate, both ends in [0,1].
type CredibleInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// BayesianTestResult is the verdict of one control/challenger comparison.
type BayesianTestResult struct {
	ControlVariantID       string           `json:"controlVariantId"`
	ChallengerVariantID    string           `json:"challengerVariantId"`
	ProbabilityBeatControl float64          `json:"probabilityBeatControl"`
	IsSignificant          bool             `json:"isSignificant"`
	ConfidenceThreshold    float64          `json:"confidenceThreshold"`
	ExpectedLift           float64          `json:"expectedLift"` // percent, signed
	CredibleInterval       CredibleInterval `json:"credibleInterval"`
}

// underpowered reports whether r came from the minimum-sample guard.
// A computed interval always has a positive upper bound.
func (r BayesianTestResult) underpowered() bool {
	return r.CredibleInterval.Lower == 0 && r.CredibleInterval.Upper == 0
}

// StopReason explains a ShouldStopEarly decision.
type StopReason string

const (
	ReasonWinnerFound     StopReason = "winner_found"
	ReasonFutilityStopped StopReason = "futility_stopped"
	ReasonContinueTesting StopReason = "continue_testing"
)

type StopDecision struct {
	ShouldStop bool       `json:"shouldStop"`
	Reason     StopReason `json:"reason"`
}

// VariantAnalytics is the pre-aggregated view of one arm used by the
// frequentist path.
type VariantAnalytics struct {
	UniqueViews    int     `json:"uniqueViews"`
	ConversionRate float64 `json:"conversionRate"` // 0-1
}

// ConfidenceResult is the frequentist z-test verdict.
type ConfidenceResult struct {
	IsSignificant bool    `json:"isSignificant"`
	Confidence    float64 `json:"confidence"` // percent, [0, 99.9]
}
