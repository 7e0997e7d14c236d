package stats

import "math"

// zClamp bounds GetZScore at the extremes of the unit interval.
const zClamp = 10

// NormalCDF approximates the cumulative distribution function
// of the standard normal distribution.
func NormalCDF(x float64) float64 {
	// Abramowitz and Stegun, Handbook of Mathematical Functions, formula 7.1.26
	a1 := 0.254829592
	a2 := -0.284496736
	a3 := 1.421413741
	a4 := -1.453152027
	a5 := 1.061405429
	p := 0.3275911

	sign := 1.0
	if x < 0 {
		sign = -1.0
	}
	x = math.Abs(x) / math.Sqrt(2)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)

	return 0.5 * (1.0 + sign*y)
}

// GetZScore returns the standard normal quantile for probability p,
// clamped to ±10 for p outside the open unit interval.
func GetZScore(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	if p <= 0 {
		return -zClamp
	}
	if p >= 1 {
		return zClamp
	}
	z := inverseNormal(p)
	return math.Max(-zClamp, math.Min(zClamp, z))
}

// ZScore returns the two-sided critical value for a confidence level,
// e.g. 0.90 -> 1.645, 0.95 -> 1.96, 0.99 -> 2.576.
func ZScore(confidence float64) float64 {
	return GetZScore((1 + confidence) / 2)
}

var (
	quantileA = [6]float64{-3.969683028665376e+01, 2.209460984245205e+02,
		-2.759285104469687e+02, 1.383577518672690e+02,
		-3.066479806614716e+01, 2.506628277459239e+00}
	quantileB = [5]float64{-5.447609879822406e+01, 1.615858368580409e+02,
		-1.556989798598866e+02, 6.680131188771972e+01,
		-1.328068155288572e+01}
	quantileC = [6]float64{-7.784894002430293e-03, -3.223964580411365e-01,
		-2.400758277161838e+00, -2.549732539343734e+00,
		4.374664141464968e+00, 2.938163982698783e+00}
	quantileD = [4]float64{7.784695709041462e-03, 3.224671290700398e-01,
		2.445134137142996e+00, 3.754408661907416e+00}
)

// inverseNormal is a rational approximation of the inverse standard
// normal CDF, split into a central region and two tails.
func inverseNormal(p float64) float64 {
	a, b, c, d := quantileA, quantileB, quantileC, quantileD

	pLow := 0.02425
	pHigh := 1 - pLow

	var q, r float64

	if p < pLow {
		q = math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	} else if p <= pHigh {
		q = p - 0.5
		r = q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	}
	q = math.Sqrt(-2 * math.Log(1-p))
	return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
		((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
}
