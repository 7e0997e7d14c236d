package stats

import "math"

const (
	// minUniqueViews is the floor below which the z-test reports nothing.
	minUniqueViews = 30

	// zCritical is the fixed 95% two-tailed threshold of the z-test path.
	zCritical = 1.96

	maxConfidence = 99.9
)

// GetConfidence performs a two-tailed two-proportion z-test of variant
// against control. It answers a different question than the Bayesian
// path and is computed from pre-aggregated analytics.
func GetConfidence(variant, control VariantAnalytics) ConfidenceResult {
	// Need data from both variants
	if variant.UniqueViews < minUniqueViews || control.UniqueViews < minUniqueViews {
		return ConfidenceResult{}
	}

	p1, n1 := variant.ConversionRate, float64(variant.UniqueViews)
	p2, n2 := control.ConversionRate, float64(control.UniqueViews)

	// Pooled proportion under the null hypothesis (p1 = p2)
	pooledP := (p1*n1 + p2*n2) / (n1 + n2)

	se := math.Sqrt(pooledP * (1 - pooledP) * (1/n1 + 1/n2))
	if !(se > 0) {
		return ConfidenceResult{}
	}

	z := math.Abs(p1-p2) / se
	pValue := 2 * (1 - NormalCDF(z))

	confidence := (1 - pValue) * 100
	confidence = math.Max(0, math.Min(maxConfidence, confidence))

	return ConfidenceResult{
		IsSignificant: z >= zCritical,
		Confidence:    math.Round(confidence*10) / 10,
	}
}
