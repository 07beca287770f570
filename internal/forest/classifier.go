package forest

import "github.com/ecomind/ecomind/internal/vegetation"

// healthRegime maps an index range to a fixed four-band split.
type healthRegime struct {
	minNDVI float64
	minEVI  float64
	props   Proportions
}

// healthRegimes are evaluated in order; the first match wins. The final
// regime is the catch-all for sparse or degraded canopy.
var healthRegimes = []healthRegime{
	{minNDVI: 0.6, minEVI: 0.4, props: Proportions{Healthy: 0.70, Moderate: 0.20, Stressed: 0.08, Unhealthy: 0.02}},
	{minNDVI: 0.4, minEVI: 0.2, props: Proportions{Healthy: 0.50, Moderate: 0.30, Stressed: 0.15, Unhealthy: 0.05}},
	{minNDVI: 0.2, minEVI: 0.1, props: Proportions{Healthy: 0.30, Moderate: 0.30, Stressed: 0.25, Unhealthy: 0.15}},
}

// catchAllProps applies when no regime condition holds.
var catchAllProps = Proportions{Healthy: 0.15, Moderate: 0.25, Stressed: 0.35, Unhealthy: 0.25}

// Classify maps vegetation index statistics to health-band proportions.
func Classify(sample *vegetation.Sample) Proportions {
	for _, r := range healthRegimes {
		if sample.NDVIMean > r.minNDVI && sample.EVIMean > r.minEVI {
			return r.props
		}
	}
	return catchAllProps
}

// EstimateTreeCount derives a tree population from index statistics for a
// square region of radiusKm around the sampled point. Coverage fraction
// steps with canopy density, and per-hectare density scales with NDVI.
func EstimateTreeCount(sample *vegetation.Sample, radiusKm float64) int64 {
	var coverage float64
	switch {
	case sample.NDVIMean > 0.5:
		coverage = 0.70
	case sample.NDVIMean > 0.3:
		coverage = 0.40
	case sample.NDVIMean > 0.2:
		coverage = 0.20
	default:
		coverage = 0.05
	}

	side := 2 * radiusKm
	areaHa := side * side * 100
	density := 400 + 400*sample.NDVIMean // trees per hectare

	trees := int64(areaHa * coverage * density)
	if trees < 0 {
		trees = 0
	}
	return trees
}
