package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/headline-goat/abverdict/internal/stats"
)

func analytics(views int, rate float64) stats.VariantAnalytics {
	return stats.VariantAnalytics{UniqueViews: views, ConversionRate: rate}
}

func TestGetConfidence_ClearWinner(t *testing.T) {
	// 20% vs 15% over 1000 views each: z ~2.94
	result := stats.GetConfidence(analytics(1000, 0.20), analytics(1000, 0.15))

	assert.True(t, result.IsSignificant)
	assert.Equal(t, 99.7, result.Confidence)
}

func TestGetConfidence_NotSignificant(t *testing.T) {
	result := stats.GetConfidence(analytics(1000, 0.11), analytics(1000, 0.10))

	assert.False(t, result.IsSignificant)
	assert.Equal(t, 53.4, result.Confidence)
}

func TestGetConfidence_Symmetric(t *testing.T) {
	// two-tailed: swapping arms gives the same answer
	ab := stats.GetConfidence(analytics(500, 0.12), analytics(500, 0.10))
	ba := stats.GetConfidence(analytics(500, 0.10), analytics(500, 0.12))

	assert.Equal(t, ab, ba)
	assert.Equal(t, 68.8, ab.Confidence)
}

func TestGetConfidence_EqualRates(t *testing.T) {
	result := stats.GetConfidence(analytics(100, 0.5), analytics(100, 0.5))

	assert.False(t, result.IsSignificant)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestGetConfidence_MinimumViews(t *testing.T) {
	tests := []struct {
		name    string
		variant stats.VariantAnalytics
		control stats.VariantAnalytics
	}{
		{"variant short", analytics(29, 1.0), analytics(10000, 0.0)},
		{"control short", analytics(10000, 0.9), analytics(29, 0.01)},
		{"both empty", analytics(0, 0), analytics(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, stats.ConfidenceResult{}, stats.GetConfidence(tt.variant, tt.control))
		})
	}
}

func TestGetConfidence_ZeroVariance(t *testing.T) {
	// nobody converts anywhere: se is zero
	assert.Equal(t, stats.ConfidenceResult{}, stats.GetConfidence(analytics(500, 0), analytics(500, 0)))
	// everybody converts everywhere
	assert.Equal(t, stats.ConfidenceResult{}, stats.GetConfidence(analytics(500, 1), analytics(500, 1)))
}

func TestGetConfidence_Capped(t *testing.T) {
	result := stats.GetConfidence(analytics(10000, 0.9), analytics(10000, 0.1))

	assert.True(t, result.IsSignificant)
	assert.Equal(t, 99.9, result.Confidence)
}
