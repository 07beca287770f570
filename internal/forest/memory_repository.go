package forest

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository for
// testing and local development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	// snapshots per canonical key, append order
	snapshots map[string][]*Snapshot
}

// NewInMemoryRepository creates a new in-memory snapshot repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		nextID:    1,
		snapshots: make(map[string][]*Snapshot),
	}
}

// GetLatest retrieves the most recent snapshot for a location.
func (r *InMemoryRepository) GetLatest(_ context.Context, locationKey string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.snapshots[locationKey]
	if len(history) == 0 {
		return nil, ErrSnapshotNotFound
	}

	return copySnapshot(latestOf(history)), nil
}

// CreateInitial inserts the location's first snapshot if none exists.
// The check and insert happen under one lock, mirroring the database's
// insert-if-absent primitive.
func (r *InMemoryRepository) CreateInitial(_ context.Context, snap *Snapshot) (*Snapshot, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.snapshots[snap.Location] {
		if existing.IsInitial {
			return copySnapshot(existing), false, nil
		}
	}

	stored := copySnapshot(snap)
	stored.ID = r.nextID
	stored.IsInitial = true
	r.nextID++
	r.snapshots[snap.Location] = append(r.snapshots[snap.Location], stored)

	return copySnapshot(stored), true, nil
}

// InsertSnapshot appends a time-series snapshot.
func (r *InMemoryRepository) InsertSnapshot(_ context.Context, snap *Snapshot) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copySnapshot(snap)
	stored.ID = r.nextID
	stored.IsInitial = false
	r.nextID++
	r.snapshots[snap.Location] = append(r.snapshots[snap.Location], stored)

	return copySnapshot(stored), nil
}

// ListLatest returns the latest snapshot per location with sample counts.
func (r *InMemoryRepository) ListLatest(_ context.Context) ([]*LocationSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.snapshots))
	for key, history := range r.snapshots {
		if len(history) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	summaries := make([]*LocationSummary, 0, len(keys))
	for _, key := range keys {
		history := r.snapshots[key]
		summaries = append(summaries, &LocationSummary{
			Latest:      copySnapshot(latestOf(history)),
			SampleCount: int64(len(history)),
		})
	}
	return summaries, nil
}

// SearchLatest returns latest snapshots matching the substring query in
// either direction.
func (r *InMemoryRepository) SearchLatest(_ context.Context, query string) ([]*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for key, history := range r.snapshots {
		if len(history) == 0 {
			continue
		}
		if strings.Contains(key, query) || strings.Contains(query, key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	snaps := make([]*Snapshot, 0, len(keys))
	for _, key := range keys {
		snaps = append(snaps, copySnapshot(latestOf(r.snapshots[key])))
	}
	return snaps, nil
}

// AggregateTotals sums the latest snapshot per location.
func (r *InMemoryRepository) AggregateTotals(_ context.Context, locationKey string) (*Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t Totals
	for key, history := range r.snapshots {
		if len(history) == 0 {
			continue
		}
		if locationKey != "" && key != locationKey {
			continue
		}

		latest := latestOf(history)
		t.Locations++
		t.TreeCount += latest.TreeCount
		t.Counts.Healthy += latest.Counts.Healthy
		t.Counts.Moderate += latest.Counts.Moderate
		t.Counts.Stressed += latest.Counts.Stressed
		t.Counts.Unhealthy += latest.Counts.Unhealthy
		t.CarbonTons += latest.CarbonTons
		t.AreaHa += latest.AreaHa
	}
	return &t, nil
}

// TopByCarbon returns the locations with the highest carbon tonnage.
func (r *InMemoryRepository) TopByCarbon(_ context.Context, limit int) ([]LocationCarbon, error) {
	if limit <= 0 {
		limit = 10
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var top []LocationCarbon
	for key, history := range r.snapshots {
		if len(history) == 0 {
			continue
		}
		latest := latestOf(history)
		top = append(top, LocationCarbon{
			Location:    key,
			DisplayName: latest.DisplayName,
			CarbonTons:  latest.CarbonTons,
			TreeCount:   latest.TreeCount,
		})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].CarbonTons != top[j].CarbonTons {
			return top[i].CarbonTons > top[j].CarbonTons
		}
		return top[i].Location < top[j].Location
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

// latestOf returns the most recent snapshot of a non-empty history.
func latestOf(history []*Snapshot) *Snapshot {
	latest := history[0]
	for _, snap := range history[1:] {
		if snap.RecordedAt.After(latest.RecordedAt) ||
			(snap.RecordedAt.Equal(latest.RecordedAt) && snap.ID > latest.ID) {
			latest = snap
		}
	}
	return latest
}

// copySnapshot returns a defensive copy.
func copySnapshot(snap *Snapshot) *Snapshot {
	c := *snap
	return &c
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
