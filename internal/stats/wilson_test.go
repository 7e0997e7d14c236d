package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/headline-goat/abverdict/internal/stats"
)

func TestWilsonInterval(t *testing.T) {
	tests := []struct {
		name       string
		successes  int
		trials     int
		lowerRange [2]float64
		upperRange [2]float64
	}{
		{"50 percent", 50, 100, [2]float64{0.38, 0.42}, [2]float64{0.58, 0.62}},
		{"low conversion", 5, 100, [2]float64{0.01, 0.03}, [2]float64{0.09, 0.13}},
		{"high conversion", 95, 100, [2]float64{0.87, 0.91}, [2]float64{0.97, 0.99}},
		{"all successes", 100, 100, [2]float64{0.95, 0.99}, [2]float64{0.99, 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper := stats.WilsonInterval(tt.successes, tt.trials, 0.95)

			if lower < tt.lowerRange[0] || lower > tt.lowerRange[1] {
				t.Errorf("lower bound %f not in expected range %v", lower, tt.lowerRange)
			}
			if upper < tt.upperRange[0] || upper > tt.upperRange[1] {
				t.Errorf("upper bound %f not in expected range %v", upper, tt.upperRange)
			}
		})
	}
}

func TestWilsonInterval_ZeroTrials(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 0, 0.95)

	if lower != 0 || upper != 0 {
		t.Errorf("expected (0, 0) for zero trials, got (%f, %f)", lower, upper)
	}
}

func TestWilsonInterval_ZeroSuccesses(t *testing.T) {
	lower, upper := stats.WilsonInterval(0, 100, 0.95)

	assert.InDelta(t, 0, lower, 1e-12)
	assert.True(t, upper > 0.01 && upper < 0.05, "upper bound %f not in [0.01, 0.05]", upper)
}

func TestWilsonInterval_SmallSampleIsWide(t *testing.T) {
	lower, upper := stats.WilsonInterval(5, 10, 0.95)

	if width := upper - lower; width < 0.3 {
		t.Errorf("interval width %f too narrow for small sample", width)
	}
}
