// Package worker provides background job processing for EcoMind.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the snapshot refresh job.
type RefreshConfig struct {
	// SeedLocations are sampled even before anyone has asked for them.
	// If empty, uses DefaultSeedLocations.
	SeedLocations []string

	// Concurrency is the number of concurrent sampling operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each location's sampling.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		SeedLocations: DefaultSeedLocations(),
		Concurrency:   3,
		Timeout:       30 * time.Second,
	}
}

// DefaultSeedLocations returns the locations kept warm between requests.
// Focuses on large Indian metros plus a few international anchors.
func DefaultSeedLocations() []string {
	return []string{
		"mumbai",
		"delhi",
		"bangalore",
		"hyderabad",
		"chennai",
		"kolkata",
		"pune",
		"ahmedabad",
		"london",
		"new york",
		"dubai",
		"singapore",
	}
}
