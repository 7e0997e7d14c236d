package stats

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler selects the Beta sampling backend for the Monte Carlo loop.
type Sampler int

const (
	// SamplerMarsaglia draws Beta variates as a ratio of Marsaglia–Tsang
	// Gamma variates fed by Box–Muller normals.
	SamplerMarsaglia Sampler = iota
	// SamplerExact delegates to gonum's distuv.Beta.
	SamplerExact
)

func (s Sampler) String() string {
	switch s {
	case SamplerMarsaglia:
		return "marsaglia"
	case SamplerExact:
		return "exact"
	default:
		return fmt.Sprintf("sampler(%d)", int(s))
	}
}

// ParseSampler maps a configuration name to a Sampler.
func ParseSampler(name string) (Sampler, error) {
	switch name {
	case "", "marsaglia":
		return SamplerMarsaglia, nil
	case "exact", "gonum":
		return SamplerExact, nil
	}
	return 0, fmt.Errorf("%w: unknown sampler %q", ErrInvalidArgument, name)
}

func (s Sampler) beta(r *rand.Rand, alpha, beta float64) float64 {
	if s == SamplerExact {
		return distuv.Beta{Alpha: alpha, Beta: beta, Src: r}.Rand()
	}
	return sampleBeta(r, alpha, beta)
}

// sampleBeta uses Beta(a,b) = X/(X+Y) with X ~ Gamma(a), Y ~ Gamma(b).
func sampleBeta(r *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(r, alpha)
	y := sampleGamma(r, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from Gamma(shape, 1) with the Marsaglia–Tsang squeeze.
// Shapes below 1 are boosted: Gamma(k) = Gamma(k+1) * U^(1/k).
func sampleGamma(r *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := uniformOpen(r)
		return sampleGamma(r, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)

	for {
		var x, v float64
		for {
			x = standardNormal(r)
			v = 1 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := uniformOpen(r)

		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// standardNormal is a Box–Muller draw from two independent uniforms.
func standardNormal(r *rand.Rand) float64 {
	u1 := uniformOpen(r)
	u2 := r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// uniformOpen returns a uniform variate in (0,1].
func uniformOpen(r *rand.Rand) float64 {
	return 1 - r.Float64()
}
