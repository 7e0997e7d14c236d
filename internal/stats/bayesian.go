package stats

import (
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
)

const (
	// MonteCarloSamples is the number of posterior draws per arm.
	MonteCarloSamples = 10000

	// credibleZ is the 95% two-sided normal critical value.
	credibleZ = 1.96

	// futilityThreshold is the probability below which a challenger is
	// considered unlikely to ever beat control.
	futilityThreshold = 0.1

	// seedStream is the second PCG word used with a fixed seed.
	seedStream = 0x9e3779b97f4a7c15
)

// Calculator runs Bayesian comparisons between a control and a challenger.
// A Calculator is safe for concurrent use: every call owns its generator.
type Calculator struct {
	seed    *uint64
	sampler Sampler
	logger  *zap.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithSeed makes every comparison deterministic for the given seed.
func WithSeed(seed uint64) Option {
	return func(c *Calculator) {
		c.seed = &seed
	}
}

// WithSampler selects the Beta sampling backend.
func WithSampler(s Sampler) Option {
	return func(c *Calculator) {
		c.sampler = s
	}
}

// WithLogger sets the logger used for debug tracing of comparisons.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Calculator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCalculator creates a Calculator. Without WithSeed each call is seeded
// from the runtime's global generator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		sampler: SamplerMarsaglia,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Calculator) newRand() *rand.Rand {
	if c.seed != nil {
		return rand.New(rand.NewPCG(*c.seed, seedStream))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// CalculateBayesianProbability estimates the probability that the
// challenger's true conversion rate exceeds the control's.
//
// Each arm's rate is modeled as Beta(successes+1, failures+1), the
// posterior under a uniform prior. Arms below cfg.MinimumSampleSize get a
// zero result rather than a conclusion.
func (c *Calculator) CalculateBayesianProbability(control, challenger VariantObservation, cfg StatisticalConfig) (BayesianTestResult, error) {
	if err := cfg.Validate(); err != nil {
		return BayesianTestResult{}, err
	}
	if err := control.validate(); err != nil {
		return BayesianTestResult{}, err
	}
	if err := challenger.validate(); err != nil {
		return BayesianTestResult{}, err
	}

	result := BayesianTestResult{
		ControlVariantID:    control.ID,
		ChallengerVariantID: challenger.ID,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}

	if control.Trials < cfg.MinimumSampleSize || challenger.Trials < cfg.MinimumSampleSize {
		c.logger.Debug("comparison below minimum sample size",
			zap.String("control", control.ID),
			zap.String("challenger", challenger.ID),
			zap.Int("control_trials", control.Trials),
			zap.Int("challenger_trials", challenger.Trials),
			zap.Int("minimum_sample_size", cfg.MinimumSampleSize),
		)
		return result, nil
	}

	alphaA, betaA := posterior(control)
	alphaB, betaB := posterior(challenger)

	result.ProbabilityBeatControl = c.probabilityBGreater(alphaA, betaA, alphaB, betaB)
	result.ExpectedLift = expectedLift(control.Rate(), challenger.Rate())
	result.CredibleInterval = credibleInterval(alphaB, betaB)
	result.IsSignificant = result.ProbabilityBeatControl >= cfg.ConfidenceThreshold &&
		math.Abs(result.ExpectedLift) >= cfg.MinimumDetectableEffect

	c.logger.Debug("bayesian comparison",
		zap.String("control", control.ID),
		zap.String("challenger", challenger.ID),
		zap.Stringer("sampler", c.sampler),
		zap.Float64("probability", result.ProbabilityBeatControl),
		zap.Float64("lift", result.ExpectedLift),
		zap.Bool("significant", result.IsSignificant),
	)

	return result, nil
}

// CompareVariants is the entry point for raw conversion counts. Composite
// or weighted engagement scores violate the Beta-Binomial model and have
// no way to reach this function.
func (c *Calculator) CompareVariants(control, challenger ConversionCounts, cfg StatisticalConfig) (BayesianTestResult, error) {
	return c.CalculateBayesianProbability(control.observation(), challenger.observation(), cfg)
}

func (c *Calculator) probabilityBGreater(alphaA, betaA, alphaB, betaB float64) float64 {
	r := c.newRand()
	wins := 0
	for i := 0; i < MonteCarloSamples; i++ {
		a := c.sampler.beta(r, alphaA, betaA)
		b := c.sampler.beta(r, alphaB, betaB)
		if b > a {
			wins++
		}
	}
	return float64(wins) / MonteCarloSamples
}

func posterior(o VariantObservation) (alpha, beta float64) {
	return float64(o.Successes + 1), float64(o.Trials - o.Successes + 1)
}

// expectedLift is the relative change in percent, 0 when control converts at 0.
func expectedLift(controlRate, challengerRate float64) float64 {
	if controlRate == 0 {
		return 0
	}
	return (challengerRate - controlRate) / controlRate * 100
}

// credibleInterval is a normal approximation to the 95% interval of Beta(alpha, beta).
func credibleInterval(alpha, beta float64) CredibleInterval {
	sum := alpha + beta
	mean := alpha / sum
	variance := alpha * beta / (sum * sum * (sum + 1))
	margin := credibleZ * math.Sqrt(variance)
	return CredibleInterval{
		Lower: clamp01(mean - margin),
		Upper: clamp01(mean + margin),
	}
}

// ShouldStopEarly decides whether a running test can end.
//
// A computed probability of exactly 0 counts as futility; the zero result
// of an under-sampled comparison does not.
func ShouldStopEarly(result BayesianTestResult) StopDecision {
	p := result.ProbabilityBeatControl

	if result.IsSignificant && p >= result.ConfidenceThreshold {
		return StopDecision{ShouldStop: true, Reason: ReasonWinnerFound}
	}
	if p < futilityThreshold && (p > 0 || !result.underpowered()) {
		return StopDecision{ShouldStop: true, Reason: ReasonFutilityStopped}
	}
	return StopDecision{ShouldStop: false, Reason: ReasonContinueTesting}
}
