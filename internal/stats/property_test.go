package stats_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/headline-goat/abverdict/internal/stats"
)

// monteCarloSlack covers the sampling noise between two independent
// 10,000-draw estimates.
const monteCarloSlack = 0.04

func drawObservation(rt *rapid.T, label string, minTrials int) stats.VariantObservation {
	trials := rapid.IntRange(minTrials, 5000).Draw(rt, label+"_trials")
	successes := rapid.IntRange(0, trials).Draw(rt, label+"_successes")
	return stats.VariantObservation{ID: label, Successes: successes, Trials: trials}
}

func TestProperty_GuardIgnoresSuccesses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		minimum := rapid.IntRange(1, 1000).Draw(rt, "minimum")
		short := drawObservation(rt, "short", 0)
		if short.Trials >= minimum {
			short.Trials = minimum - 1
			short.Successes = min(short.Successes, short.Trials)
		}
		other := drawObservation(rt, "other", 0)

		cfg := stats.StatisticalConfig{ConfidenceThreshold: 0.95, MinimumSampleSize: minimum}
		calc := stats.NewCalculator(stats.WithSeed(1))

		for _, pair := range [][2]stats.VariantObservation{{short, other}, {other, short}} {
			result, err := calc.CalculateBayesianProbability(pair[0], pair[1], cfg)
			require.NoError(rt, err)
			require.Equal(rt, 0.0, result.ProbabilityBeatControl)
			require.False(rt, result.IsSignificant)
			require.Equal(rt, 0.0, result.ExpectedLift)
			require.Equal(rt, stats.CredibleInterval{}, result.CredibleInterval)
		}
	})
}

func TestProperty_ResultsStayInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		control := drawObservation(rt, "control", 1)
		challenger := drawObservation(rt, "challenger", 1)
		seed := rapid.Uint64().Draw(rt, "seed")

		cfg := stats.StatisticalConfig{ConfidenceThreshold: 0.95, MinimumSampleSize: 1, MinimumDetectableEffect: 5}
		result, err := stats.NewCalculator(stats.WithSeed(seed)).CalculateBayesianProbability(control, challenger, cfg)
		require.NoError(rt, err)

		p := result.ProbabilityBeatControl
		require.True(rt, p >= 0 && p <= 1, "probability %v", p)

		ci := result.CredibleInterval
		require.True(rt, ci.Lower >= 0 && ci.Upper <= 1, "interval %+v", ci)
		require.LessOrEqual(rt, ci.Lower, ci.Upper)
		require.Greater(rt, ci.Upper, 0.0)

		require.False(rt, math.IsNaN(result.ExpectedLift) || math.IsInf(result.ExpectedLift, 0))
		if control.Successes == 0 {
			require.Equal(rt, 0.0, result.ExpectedLift)
		}
	})
}

func TestProperty_MoreSuccessesNeverHurt(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		control := drawObservation(rt, "control", 30)
		trials := rapid.IntRange(30, 5000).Draw(rt, "challenger_trials")
		low := rapid.IntRange(0, trials).Draw(rt, "low")
		high := rapid.IntRange(low, trials).Draw(rt, "high")

		cfg := stats.StatisticalConfig{ConfidenceThreshold: 0.95, MinimumSampleSize: 30}
		calc := stats.NewCalculator(stats.WithSeed(rapid.Uint64().Draw(rt, "seed")))

		worse, err := calc.CalculateBayesianProbability(control, stats.VariantObservation{Successes: low, Trials: trials}, cfg)
		require.NoError(rt, err)
		better, err := calc.CalculateBayesianProbability(control, stats.VariantObservation{Successes: high, Trials: trials}, cfg)
		require.NoError(rt, err)

		require.GreaterOrEqual(rt, better.ProbabilityBeatControl, worse.ProbabilityBeatControl-monteCarloSlack)
		require.GreaterOrEqual(rt, better.ExpectedLift, worse.ExpectedLift)
	})
}

func TestProperty_ZTestFloor(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		short := stats.VariantAnalytics{
			UniqueViews:    rapid.IntRange(0, 29).Draw(rt, "short_views"),
			ConversionRate: rapid.Float64Range(0, 1).Draw(rt, "short_rate"),
		}
		other := stats.VariantAnalytics{
			UniqueViews:    rapid.IntRange(0, 100000).Draw(rt, "other_views"),
			ConversionRate: rapid.Float64Range(0, 1).Draw(rt, "other_rate"),
		}

		require.Equal(rt, stats.ConfidenceResult{}, stats.GetConfidence(short, other))
		require.Equal(rt, stats.ConfidenceResult{}, stats.GetConfidence(other, short))
	})
}

func TestProperty_ConfidenceBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := stats.VariantAnalytics{
			UniqueViews:    rapid.IntRange(30, 100000).Draw(rt, "a_views"),
			ConversionRate: rapid.Float64Range(0, 1).Draw(rt, "a_rate"),
		}
		b := stats.VariantAnalytics{
			UniqueViews:    rapid.IntRange(30, 100000).Draw(rt, "b_views"),
			ConversionRate: rapid.Float64Range(0, 1).Draw(rt, "b_rate"),
		}

		result := stats.GetConfidence(a, b)
		require.True(rt, result.Confidence >= 0 && result.Confidence <= 99.9, "confidence %v", result.Confidence)
		require.False(rt, math.IsNaN(result.Confidence))
	})
}
