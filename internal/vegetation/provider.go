package vegetation

import (
	"context"

	"github.com/ecomind/ecomind/internal/location"
)

// Provider supplies vegetation index statistics for a coordinate region.
//
// Implementations return ErrProviderUnavailable when the provider itself is
// not configured or reachable, and ErrNoObservations when a call succeeded
// but yielded no usable data. Callers treat both as fallback triggers but
// must keep them distinguishable in logs.
type Provider interface {
	// FetchSample fetches index statistics for the square region of
	// radiusKm around coords, looking back lookbackDays.
	FetchSample(ctx context.Context, coords location.Coordinates, radiusKm float64, lookbackDays int) (*Sample, error)

	// Name returns the provider name for logging.
	Name() string
}
