package forest

import "context"

// LocationSummary pairs a location's latest snapshot with its sample count.
type LocationSummary struct {
	Latest      *Snapshot
	SampleCount int64
}

// Totals holds summed inventory figures over a snapshot set.
type Totals struct {
	Locations  int64
	TreeCount  int64
	Counts     HealthCounts
	CarbonTons float64
	AreaHa     float64
}

// LocationCarbon is one row of the carbon leaderboard.
type LocationCarbon struct {
	Location    string
	DisplayName string
	CarbonTons  float64
	TreeCount   int64
}

// Repository defines the interface for snapshot persistence.
//
// CreateInitial is the sole synchronization point for concurrent first-time
// resolutions: implementations must guarantee at most one initial snapshot
// per location via an atomic insert-if-absent, not application locking.
type Repository interface {
	// GetLatest retrieves the most recent snapshot for a location.
	// Returns ErrSnapshotNotFound if the location has never been resolved.
	GetLatest(ctx context.Context, locationKey string) (*Snapshot, error)

	// CreateInitial inserts snap as the location's first record if none
	// exists. Returns the winning snapshot and whether this call created it;
	// when a racer won, the racer's persisted snapshot is returned instead.
	CreateInitial(ctx context.Context, snap *Snapshot) (*Snapshot, bool, error)

	// InsertSnapshot appends a time-series snapshot, bypassing the
	// first-write idempotency.
	InsertSnapshot(ctx context.Context, snap *Snapshot) (*Snapshot, error)

	// ListLatest returns the latest snapshot per stored location with
	// per-location sample counts, ordered by location key.
	ListLatest(ctx context.Context) ([]*LocationSummary, error)

	// SearchLatest returns latest snapshots whose location key contains the
	// given substring (or whose key is contained in it), ordered by key.
	SearchLatest(ctx context.Context, query string) ([]*Snapshot, error)

	// AggregateTotals sums the latest snapshot per location. An empty
	// locationKey aggregates over all locations. A zero-row selection
	// returns zero totals, not an error.
	AggregateTotals(ctx context.Context, locationKey string) (*Totals, error)

	// TopByCarbon returns up to limit locations ordered by descending
	// carbon tonnage of their latest snapshot.
	TopByCarbon(ctx context.Context, limit int) ([]LocationCarbon, error)
}
