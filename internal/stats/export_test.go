package stats

// Test hooks for the unexported samplers.
var (
	SampleGamma    = sampleGamma
	SampleBeta     = sampleBeta
	StandardNormal = standardNormal
)
