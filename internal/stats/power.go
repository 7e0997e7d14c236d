package stats

import (
	"fmt"
	"math"
)

// Defaults for power analysis when the caller has no policy of its own.
const (
	DefaultConfidence = 0.95
	DefaultPower      = 0.8
)

// CalculateRequiredSampleSize returns the per-arm sample size needed to
// detect a relative lift of minimumDetectableEffect percent over
// baselineRate, using the two-proportion power formula.
func CalculateRequiredSampleSize(baselineRate, minimumDetectableEffect, confidenceThreshold, power float64) (int, error) {
	if err := checkUnit("baseline rate", baselineRate); err != nil {
		return 0, err
	}
	if err := checkUnit("confidence threshold", confidenceThreshold); err != nil {
		return 0, err
	}
	if err := checkUnit("power", power); err != nil {
		return 0, err
	}

	expectedRate := baselineRate * (1 + minimumDetectableEffect/100)
	if expectedRate <= 0 || expectedRate > 1 {
		return 0, fmt.Errorf("%w: expected rate %v is outside (0,1]", ErrInvalidArgument, expectedRate)
	}
	delta := expectedRate - baselineRate
	if delta == 0 {
		return 0, fmt.Errorf("%w: minimum detectable effect must be non-zero", ErrInvalidArgument)
	}

	zAlpha := GetZScore(1 - (1-confidenceThreshold)/2)
	zBeta := GetZScore(power)
	p := (baselineRate + expectedRate) / 2

	n := 2 * math.Pow(zAlpha+zBeta, 2) * p * (1 - p) / (delta * delta)
	return int(math.Ceil(n)), nil
}

// CalculatePower returns the probability of detecting a relative lift of
// effect percent with sampleSize observations per arm.
func CalculatePower(sampleSize int, baselineRate, effect, confidenceThreshold float64) (float64, error) {
	if sampleSize < 0 {
		return 0, fmt.Errorf("%w: sample size %d is negative", ErrInvalidArgument, sampleSize)
	}
	if err := checkUnit("baseline rate", baselineRate); err != nil {
		return 0, err
	}
	if err := checkUnit("confidence threshold", confidenceThreshold); err != nil {
		return 0, err
	}
	if sampleSize == 0 {
		return 0, nil
	}

	expectedRate := baselineRate * (1 + effect/100)
	p := (baselineRate + expectedRate) / 2
	se := math.Sqrt(2 * p * (1 - p) / float64(sampleSize))
	if !(se > 0) {
		return 0, nil
	}

	zAlpha := GetZScore(1 - (1-confidenceThreshold)/2)
	z := math.Abs(expectedRate-baselineRate)/se - zAlpha
	return clamp01(NormalCDF(z)), nil
}

func checkUnit(name string, v float64) error {
	if !(v > 0 && v < 1) {
		return fmt.Errorf("%w: %s %v must be in (0,1)", ErrInvalidArgument, name, v)
	}
	return nil
}
