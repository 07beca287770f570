package forest

// Per-band carbon sequestration rates in tons CO2/ha/yr.
const (
	rateHealthy   = 6.5
	rateModerate  = 4.0
	rateStressed  = 2.0
	rateUnhealthy = 0.75
)

// canopyFootprintM2 is the assumed average canopy footprint per tree.
const canopyFootprintM2 = 25.0

// AreaForTrees derives hectares of canopy from a tree count.
func AreaForTrees(treeCount int64) float64 {
	return float64(treeCount) * canopyFootprintM2 / 10000
}

// WeightedCarbonRate blends the per-band rates by proportion.
func WeightedCarbonRate(p Proportions) float64 {
	return p.Healthy*rateHealthy +
		p.Moderate*rateModerate +
		p.Stressed*rateStressed +
		p.Unhealthy*rateUnhealthy
}

// EstimateCarbon computes annual sequestration in tons CO2 for a canopy area
// at a given rate. Measured and synthetic paths use different rates; both
// multiply through here.
func EstimateCarbon(areaHa, rate float64) float64 {
	return areaHa * rate
}
