package models

import (
	"time"

	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
)

// ForestSnapshot is the API representation of a single forest sample.
type ForestSnapshot struct {
	Location    string    `json:"location"`
	DisplayName string    `json:"displayName"`
	RecordedAt  time.Time `json:"recordedAt"`
	TreeCount   int64     `json:"treeCount"`
	Healthy     int64     `json:"healthy"`
	Moderate    int64     `json:"moderate"`
	Stressed    int64     `json:"stressed"`
	Unhealthy   int64     `json:"unhealthy"`
	CarbonTons  float64   `json:"carbonTons"`
	AreaHa      float64   `json:"areaHa"`
	DataSource  string    `json:"dataSource"`
	IsInitial   bool      `json:"isInitial"`
}

// ForestSnapshotFromDomain converts a domain snapshot to its API form.
func ForestSnapshotFromDomain(s *forest.Snapshot) ForestSnapshot {
	return ForestSnapshot{
		Location:    s.Location,
		DisplayName: s.DisplayName,
		RecordedAt:  s.RecordedAt,
		TreeCount:   s.TreeCount,
		Healthy:     s.Counts.Healthy,
		Moderate:    s.Counts.Moderate,
		Stressed:    s.Counts.Stressed,
		Unhealthy:   s.Counts.Unhealthy,
		CarbonTons:  s.CarbonTons,
		AreaHa:      s.AreaHa,
		DataSource:  string(s.DataSource),
		IsInitial:   s.IsInitial,
	}
}

// LocationMetrics is returned from the single-location endpoint. It carries
// the resolved coordinates alongside the latest snapshot.
type LocationMetrics struct {
	ForestSnapshot
	Coordinates *Point `json:"coordinates,omitempty"`
	Created     bool   `json:"created"`
}

// LocationMetricsFromDomain builds a LocationMetrics response.
func LocationMetricsFromDomain(s *forest.Snapshot, loc *location.Location, created bool) LocationMetrics {
	m := LocationMetrics{
		ForestSnapshot: ForestSnapshotFromDomain(s),
		Created:        created,
	}
	if loc != nil {
		m.Coordinates = &Point{Lat: loc.Coordinates.Lat, Lon: loc.Coordinates.Lon}
	}
	return m
}

// LocationListItem summarizes one tracked location.
type LocationListItem struct {
	ForestSnapshot
	SampleCount int64 `json:"sampleCount"`
}

// LocationListResponse is the paged list of tracked locations.
type LocationListResponse struct {
	Items []LocationListItem `json:"items"`
	Total int                `json:"total"`
}

// LocationSearchResponse is returned from the search endpoint.
type LocationSearchResponse struct {
	Query         string           `json:"query"`
	Items         []ForestSnapshot `json:"items"`
	FoundExisting bool             `json:"foundExisting"`
}

// SampleRequest is the body for forcing a fresh sample.
type SampleRequest struct {
	Reason string `json:"reason,omitempty"`
}
