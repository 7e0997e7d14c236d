package stats_test

import (
	"math/rand/v2"
	"testing"

	mstats "github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/headline-goat/abverdict/internal/stats"
)

const draws = 20000

func drawN(n int, draw func() float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = draw()
	}
	return out
}

func TestSampleGamma_Moments(t *testing.T) {
	// Gamma(k, 1) has mean k and variance k; shapes below 1 take the boost path.
	for _, shape := range []float64{0.3, 0.5, 1, 2.5, 9.5, 151} {
		r := rand.New(rand.NewPCG(1, uint64(shape*1000)))
		samples := drawN(5*draws, func() float64 { return stats.SampleGamma(r, shape) })

		mean, err := mstats.Mean(samples)
		require.NoError(t, err)
		variance, err := mstats.Variance(samples)
		require.NoError(t, err)

		assert.InEpsilon(t, shape, mean, 0.05, "mean for shape %v", shape)
		assert.InEpsilon(t, shape, variance, 0.15, "variance for shape %v", shape)

		min, err := mstats.Min(samples)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, min, 0.0)
	}
}

func TestSampleBeta_MatchesGonum(t *testing.T) {
	params := []struct{ alpha, beta float64 }{
		{1, 1},
		{2, 5},
		{151, 851},
		{11, 991},
	}

	for _, p := range params {
		r := rand.New(rand.NewPCG(3, 4))
		samples := drawN(draws, func() float64 { return stats.SampleBeta(r, p.alpha, p.beta) })

		ref := distuv.Beta{Alpha: p.alpha, Beta: p.beta}

		mean, err := mstats.Mean(samples)
		require.NoError(t, err)
		sd, err := mstats.StandardDeviation(samples)
		require.NoError(t, err)

		assert.InEpsilon(t, ref.Mean(), mean, 0.02, "Beta(%v, %v) mean", p.alpha, p.beta)
		assert.InEpsilon(t, ref.StdDev(), sd, 0.05, "Beta(%v, %v) sd", p.alpha, p.beta)

		median, err := mstats.Median(samples)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, ref.CDF(median), 0.02, "Beta(%v, %v) median", p.alpha, p.beta)

		for _, s := range samples {
			if s < 0 || s > 1 {
				t.Fatalf("Beta(%v, %v) sample %v outside [0,1]", p.alpha, p.beta, s)
			}
		}
	}
}

func TestStandardNormal_Moments(t *testing.T) {
	r := rand.New(rand.NewPCG(10, 20))
	samples := drawN(draws, func() float64 { return stats.StandardNormal(r) })

	mean, err := mstats.Mean(samples)
	require.NoError(t, err)
	variance, err := mstats.Variance(samples)
	require.NoError(t, err)
	q975, err := mstats.Percentile(samples, 97.5)
	require.NoError(t, err)

	assert.InDelta(t, 0, mean, 0.03)
	assert.InDelta(t, 1, variance, 0.05)
	assert.InDelta(t, 1.96, q975, 0.08)
}

func TestParseSampler(t *testing.T) {
	tests := []struct {
		name string
		want stats.Sampler
	}{
		{"", stats.SamplerMarsaglia},
		{"marsaglia", stats.SamplerMarsaglia},
		{"exact", stats.SamplerExact},
		{"gonum", stats.SamplerExact},
	}
	for _, tt := range tests {
		got, err := stats.ParseSampler(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := stats.ParseSampler("ziggurat")
	assert.ErrorIs(t, err, stats.ErrInvalidArgument)

	assert.Equal(t, "exact", stats.SamplerExact.String())
	assert.Equal(t, "marsaglia", stats.SamplerMarsaglia.String())
}
