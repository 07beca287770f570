package models

import "github.com/ecomind/ecomind/internal/forest"

// OverviewResponse summarizes tree and carbon totals across locations.
type OverviewResponse struct {
	Location               string  `json:"location,omitempty"`
	Locations              int64   `json:"locations"`
	TotalTrees             int64   `json:"totalTrees"`
	Healthy                int64   `json:"healthy"`
	Moderate               int64   `json:"moderate"`
	Stressed               int64   `json:"stressed"`
	Unhealthy              int64   `json:"unhealthy"`
	HealthScore            float64 `json:"healthScore"`
	TotalCarbonTons        float64 `json:"totalCarbonTons"`
	ForestCoverageHectares float64 `json:"forestCoverageHectares"`
}

// OverviewFromDomain converts a domain overview to its API form.
func OverviewFromDomain(o *forest.Overview, locationKey string) OverviewResponse {
	return OverviewResponse{
		Location:               locationKey,
		Locations:              o.Locations,
		TotalTrees:             o.TotalTrees,
		Healthy:                o.Counts.Healthy,
		Moderate:               o.Counts.Moderate,
		Stressed:               o.Counts.Stressed,
		Unhealthy:              o.Counts.Unhealthy,
		HealthScore:            o.HealthScore,
		TotalCarbonTons:        o.TotalCarbonTons,
		ForestCoverageHectares: o.ForestCoverageHectares,
	}
}

// DistributionResponse reports health band counts and percentages.
type DistributionResponse struct {
	Location     string  `json:"location,omitempty"`
	Total        int64   `json:"total"`
	Healthy      int64   `json:"healthy"`
	Moderate     int64   `json:"moderate"`
	Stressed     int64   `json:"stressed"`
	Unhealthy    int64   `json:"unhealthy"`
	HealthyPct   float64 `json:"healthyPct"`
	ModeratePct  float64 `json:"moderatePct"`
	StressedPct  float64 `json:"stressedPct"`
	UnhealthyPct float64 `json:"unhealthyPct"`
}

// DistributionFromDomain converts a domain distribution to its API form.
func DistributionFromDomain(d *forest.Distribution, locationKey string) DistributionResponse {
	return DistributionResponse{
		Location:     locationKey,
		Total:        d.Total,
		Healthy:      d.Counts.Healthy,
		Moderate:     d.Counts.Moderate,
		Stressed:     d.Counts.Stressed,
		Unhealthy:    d.Counts.Unhealthy,
		HealthyPct:   d.HealthyPct,
		ModeratePct:  d.ModeratePct,
		StressedPct:  d.StressedPct,
		UnhealthyPct: d.UnhealthyPct,
	}
}

// CarbonLocation is one entry in the top-locations leaderboard.
type CarbonLocation struct {
	Location    string  `json:"location"`
	DisplayName string  `json:"displayName"`
	CarbonTons  float64 `json:"carbonTons"`
	TreeCount   int64   `json:"treeCount"`
}

// CarbonRollupResponse reports fleet-wide carbon figures.
type CarbonRollupResponse struct {
	TotalCarbonTons      float64          `json:"totalCarbonTons"`
	AnnualCaptureRate    float64          `json:"annualCaptureRate"`
	EquivalentCarsOffset int64            `json:"equivalentCarsOffset"`
	TopLocations         []CarbonLocation `json:"topLocations"`
}

// CarbonRollupFromDomain converts a domain rollup to its API form.
func CarbonRollupFromDomain(r *forest.CarbonRollup) CarbonRollupResponse {
	top := make([]CarbonLocation, 0, len(r.TopLocations))
	for _, lc := range r.TopLocations {
		top = append(top, CarbonLocation{
			Location:    lc.Location,
			DisplayName: lc.DisplayName,
			CarbonTons:  lc.CarbonTons,
			TreeCount:   lc.TreeCount,
		})
	}
	return CarbonRollupResponse{
		TotalCarbonTons:      r.TotalCarbonTons,
		AnnualCaptureRate:    r.AnnualCaptureRate,
		EquivalentCarsOffset: r.EquivalentCarsOffset,
		TopLocations:         top,
	}
}
