// Package vegetation defines the vegetation-index provider contract consumed
// by the forest metrics resolver.
package vegetation

import "errors"

var (
	// ErrProviderUnavailable indicates the provider is not configured or not
	// reachable. Known before any call is attempted.
	ErrProviderUnavailable = errors.New("vegetation provider unavailable")

	// ErrNoObservations indicates a call succeeded but returned zero usable
	// observations for the requested region and lookback window.
	ErrNoObservations = errors.New("no usable vegetation observations")
)

// Sample holds vegetation index statistics for a coordinate region.
// Index values are clamped to [-1, 1].
type Sample struct {
	NDVIMean float64 `json:"ndvi_mean"`
	NDVIStd  float64 `json:"ndvi_std"`
	NDVIMin  float64 `json:"ndvi_min"`
	NDVIMax  float64 `json:"ndvi_max"`
	EVIMean  float64 `json:"evi_mean"`
}

// Clamp bounds every index value to [-1, 1]. Std is bounded to [0, 1].
func (s *Sample) Clamp() {
	s.NDVIMean = clamp(s.NDVIMean, -1, 1)
	s.NDVIMin = clamp(s.NDVIMin, -1, 1)
	s.NDVIMax = clamp(s.NDVIMax, -1, 1)
	s.EVIMean = clamp(s.EVIMean, -1, 1)
	s.NDVIStd = clamp(s.NDVIStd, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
