package forest

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
)

// Overview is the summed inventory over a selected snapshot set.
type Overview struct {
	Locations              int64
	TotalTrees             int64
	Counts                 HealthCounts
	HealthScore            float64 // (healthy+moderate)/total × 100, 0 when empty
	TotalCarbonTons        float64
	ForestCoverageHectares float64
}

// Distribution is the per-band share of a selected snapshot set.
// A zero-total selection yields an explicit all-zero record.
type Distribution struct {
	Counts       HealthCounts
	Total        int64
	HealthyPct   float64
	ModeratePct  float64
	StressedPct  float64
	UnhealthyPct float64
}

// CarbonRollup summarizes carbon figures across all locations.
type CarbonRollup struct {
	TotalCarbonTons      float64
	AnnualCaptureRate    float64
	EquivalentCarsOffset int64
	TopLocations         []LocationCarbon
}

// Aggregator computes cross-location rollups from stored snapshots.
// Reads run concurrently with writes; a rollup may or may not see a write
// that is completing, but it never observes a partial record.
type Aggregator struct {
	repo   Repository
	logger zerolog.Logger
}

// NewAggregator creates a new aggregator over the given repository.
func NewAggregator(repo Repository, logger zerolog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger}
}

// Overview sums tree counts, health bands, and carbon for one location, or
// all locations when locationKey is empty.
func (a *Aggregator) Overview(ctx context.Context, locationKey string) (*Overview, error) {
	totals, err := a.repo.AggregateTotals(ctx, locationKey)
	if err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}

	var healthScore float64
	if totals.TreeCount > 0 {
		healthScore = float64(totals.Counts.Healthy+totals.Counts.Moderate) / float64(totals.TreeCount) * 100
	}

	return &Overview{
		Locations:              totals.Locations,
		TotalTrees:             totals.TreeCount,
		Counts:                 totals.Counts,
		HealthScore:            healthScore,
		TotalCarbonTons:        totals.CarbonTons,
		ForestCoverageHectares: AreaForTrees(totals.TreeCount),
	}, nil
}

// HealthDistribution computes per-band percentages for one location, or all
// locations when locationKey is empty.
func (a *Aggregator) HealthDistribution(ctx context.Context, locationKey string) (*Distribution, error) {
	totals, err := a.repo.AggregateTotals(ctx, locationKey)
	if err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}

	dist := &Distribution{
		Counts: totals.Counts,
		Total:  totals.TreeCount,
	}
	if totals.TreeCount == 0 {
		return dist, nil
	}

	total := float64(totals.TreeCount)
	dist.HealthyPct = float64(totals.Counts.Healthy) / total * 100
	dist.ModeratePct = float64(totals.Counts.Moderate) / total * 100
	dist.StressedPct = float64(totals.Counts.Stressed) / total * 100
	dist.UnhealthyPct = float64(totals.Counts.Unhealthy) / total * 100

	return dist, nil
}

// CarbonRollup totals carbon tonnage across all locations and derives the
// annual capture rate and the equivalent number of cars taken off the road.
func (a *Aggregator) CarbonRollup(ctx context.Context) (*CarbonRollup, error) {
	totals, err := a.repo.AggregateTotals(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}

	top, err := a.repo.TopByCarbon(ctx, 10)
	if err != nil {
		return nil, fmt.Errorf("ranking locations: %w", err)
	}

	captureRate := totals.CarbonTons * 0.75

	return &CarbonRollup{
		TotalCarbonTons:      totals.CarbonTons,
		AnnualCaptureRate:    captureRate,
		EquivalentCarsOffset: int64(math.Floor(captureRate * 0.22)),
		TopLocations:         top,
	}, nil
}
