// Package forest resolves named locations into canonical forest inventory
// snapshots: tree population, a four-band health distribution, and an annual
// carbon sequestration estimate.
package forest

import (
	"errors"
	"time"
)

// Predefined errors for forest operations.
var (
	// ErrSnapshotNotFound is returned when no snapshot exists for a location.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// DataSource records the provenance of a snapshot.
type DataSource string

const (
	// SourceProvider marks snapshots computed from real vegetation indices.
	SourceProvider DataSource = "provider"

	// SourceSynthetic marks snapshots computed by the seeded fallback.
	SourceSynthetic DataSource = "synthetic"
)

// Proportions is a four-band health split. A valid set sums to 1.0.
type Proportions struct {
	Healthy   float64
	Moderate  float64
	Stressed  float64
	Unhealthy float64
}

// Sum returns the total of the four bands.
func (p Proportions) Sum() float64 {
	return p.Healthy + p.Moderate + p.Stressed + p.Unhealthy
}

// Normalize clamps negative bands to zero and rescales so the bands sum to
// 1.0. A residual from raw generation is corrected here rather than rejected.
func (p Proportions) Normalize() Proportions {
	if p.Healthy < 0 {
		p.Healthy = 0
	}
	if p.Moderate < 0 {
		p.Moderate = 0
	}
	if p.Stressed < 0 {
		p.Stressed = 0
	}
	if p.Unhealthy < 0 {
		p.Unhealthy = 0
	}

	sum := p.Sum()
	if sum == 0 {
		// Degenerate input; fall back to an even split.
		return Proportions{Healthy: 0.25, Moderate: 0.25, Stressed: 0.25, Unhealthy: 0.25}
	}

	return Proportions{
		Healthy:   p.Healthy / sum,
		Moderate:  p.Moderate / sum,
		Stressed:  p.Stressed / sum,
		Unhealthy: p.Unhealthy / sum,
	}
}

// Counts converts proportions to integer band counts. The first three bands
// floor; the last band absorbs the remainder so the total reconciles exactly
// to treeCount.
func (p Proportions) Counts(treeCount int64) HealthCounts {
	healthy := int64(p.Healthy * float64(treeCount))
	moderate := int64(p.Moderate * float64(treeCount))
	stressed := int64(p.Stressed * float64(treeCount))

	return HealthCounts{
		Healthy:   healthy,
		Moderate:  moderate,
		Stressed:  stressed,
		Unhealthy: treeCount - healthy - moderate - stressed,
	}
}

// HealthCounts is the integer tree count per health band.
type HealthCounts struct {
	Healthy   int64
	Moderate  int64
	Stressed  int64
	Unhealthy int64
}

// Total returns the sum of the four bands.
func (c HealthCounts) Total() int64 {
	return c.Healthy + c.Moderate + c.Stressed + c.Unhealthy
}

// Snapshot is one immutable forest inventory record for a location.
// The first snapshot per location carries IsInitial; explicit re-samples
// append further rows and never mutate earlier ones.
type Snapshot struct {
	ID          int64
	Location    string // canonical key
	DisplayName string
	RecordedAt  time.Time
	TreeCount   int64
	Counts      HealthCounts
	CarbonTons  float64
	AreaHa      float64
	DataSource  DataSource
	IsInitial   bool
}
