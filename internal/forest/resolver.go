package forest

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/vegetation"
)

// CapabilityGate reports whether the vegetation provider is switched off.
// Implemented by the feature-flag service; a nil gate means always on.
type CapabilityGate interface {
	IsVegetationProviderDisabled(ctx context.Context) bool
}

// ResolverConfig holds configuration for the metrics resolver.
type ResolverConfig struct {
	// Locations resolves free-text names to coordinates (required).
	Locations *location.Resolver

	// Repository persists snapshots (required).
	Repository Repository

	// Provider supplies vegetation indices. Nil means the capability is
	// not configured and every resolution takes the synthetic path.
	Provider vegetation.Provider

	// Gate can switch the provider off at runtime (optional).
	Gate CapabilityGate

	// Logger for resolver operations.
	Logger zerolog.Logger

	// ProviderTimeout bounds the single provider call (default: 10s).
	ProviderTimeout time.Duration

	// RadiusKm is the sampling region half-width (default: 5).
	RadiusKm float64

	// LookbackDays is the observation window (default: 30).
	LookbackDays int

	// Now supplies timestamps; defaults to time.Now. Tests override it.
	Now func() time.Time
}

// Resolver orchestrates the provider→fallback decision, classification,
// carbon estimation, and idempotent persistence.
//
// Resolution walks a fixed path: attempt the provider at most once (skipped
// when the capability is off), fall through to the synthetic generator on
// any failure, classify, estimate, persist. The synthetic path is pure
// computation and cannot fail, so every resolution yields a snapshot;
// only input validation and persistence errors reach the caller.
type Resolver struct {
	locations       *location.Resolver
	repo            Repository
	provider        vegetation.Provider
	gate            CapabilityGate
	logger          zerolog.Logger
	providerTimeout time.Duration
	radiusKm        float64
	lookbackDays    int
	now             func() time.Time

	providerHits        atomic.Int64
	providerUnavailable atomic.Int64
	providerErrors      atomic.Int64
}

// NewResolver creates a new metrics resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	providerTimeout := cfg.ProviderTimeout
	if providerTimeout == 0 {
		providerTimeout = 10 * time.Second
	}

	radiusKm := cfg.RadiusKm
	if radiusKm == 0 {
		radiusKm = 5
	}

	lookbackDays := cfg.LookbackDays
	if lookbackDays == 0 {
		lookbackDays = 30
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Resolver{
		locations:       cfg.Locations,
		repo:            cfg.Repository,
		provider:        cfg.Provider,
		gate:            cfg.Gate,
		logger:          cfg.Logger,
		providerTimeout: providerTimeout,
		radiusKm:        radiusKm,
		lookbackDays:    lookbackDays,
		now:             now,
	}
}

// SearchResult is the outcome of SearchOrCreate.
type SearchResult struct {
	Snapshots     []*Snapshot
	FoundExisting bool
}

// GetMetrics returns the snapshot for a location, resolving and persisting
// it on first sight. The bool reports whether this call created the record.
// Repeated calls for the same location return the first snapshot unchanged.
func (r *Resolver) GetMetrics(ctx context.Context, input string) (*Snapshot, bool, error) {
	loc, err := r.locations.Resolve(input)
	if err != nil {
		return nil, false, err
	}

	if existing, err := r.repo.GetLatest(ctx, loc.Key); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, ErrSnapshotNotFound) {
		return nil, false, fmt.Errorf("reading snapshot: %w", err)
	}

	snap := r.compute(ctx, loc)

	winner, created, err := r.repo.CreateInitial(ctx, snap)
	if err != nil {
		return nil, false, fmt.Errorf("persisting snapshot: %w", err)
	}
	return winner, created, nil
}

// ForceSample computes a fresh snapshot for a location and appends it to the
// time series, bypassing the first-write idempotency.
func (r *Resolver) ForceSample(ctx context.Context, input string) (*Snapshot, error) {
	loc, err := r.locations.Resolve(input)
	if err != nil {
		return nil, err
	}

	snap := r.compute(ctx, loc)

	inserted, err := r.repo.InsertSnapshot(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("persisting snapshot: %w", err)
	}
	return inserted, nil
}

// SearchOrCreate searches stored location keys by substring. When nothing
// matches, it resolves the literal query and persists one new snapshot.
func (r *Resolver) SearchOrCreate(ctx context.Context, query string) (*SearchResult, error) {
	key, _, err := location.Canonicalize(query)
	if err != nil {
		return nil, err
	}

	matches, err := r.repo.SearchLatest(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("searching snapshots: %w", err)
	}
	if len(matches) > 0 {
		return &SearchResult{Snapshots: matches, FoundExisting: true}, nil
	}

	snap, _, err := r.GetMetrics(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Snapshots: []*Snapshot{snap}, FoundExisting: false}, nil
}

// compute builds a snapshot for a resolved location. It always succeeds:
// any provider failure falls through to the synthetic path.
func (r *Resolver) compute(ctx context.Context, loc *location.Location) *Snapshot {
	if sample, ok := r.attemptProvider(ctx, loc); ok {
		return r.fromSample(loc, sample)
	}
	return r.fromSynthetic(loc)
}

// attemptProvider makes at most one provider call. Returns false when the
// capability is off, the call failed, or no observations came back.
func (r *Resolver) attemptProvider(ctx context.Context, loc *location.Location) (*vegetation.Sample, bool) {
	if r.provider == nil {
		r.providerUnavailable.Add(1)
		r.logger.Debug().
			Str("location", loc.Key).
			Str("cause", "provider_unavailable").
			Msg("vegetation provider not configured, using synthetic data")
		return nil, false
	}

	if r.gate != nil && r.gate.IsVegetationProviderDisabled(ctx) {
		r.providerUnavailable.Add(1)
		r.logger.Debug().
			Str("location", loc.Key).
			Str("cause", "provider_unavailable").
			Msg("vegetation provider disabled by flag, using synthetic data")
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()

	sample, err := r.provider.FetchSample(callCtx, loc.Coordinates, r.radiusKm, r.lookbackDays)
	if err != nil {
		cause := "provider_error"
		if errors.Is(err, vegetation.ErrProviderUnavailable) {
			cause = "provider_unavailable"
			r.providerUnavailable.Add(1)
		} else {
			r.providerErrors.Add(1)
		}

		r.logger.Warn().
			Err(err).
			Str("location", loc.Key).
			Str("provider", r.provider.Name()).
			Str("cause", cause).
			Msg("vegetation fetch failed, falling back to synthetic data")
		return nil, false
	}

	r.providerHits.Add(1)
	return sample, true
}

// fromSample builds a measured snapshot.
func (r *Resolver) fromSample(loc *location.Location, sample *vegetation.Sample) *Snapshot {
	treeCount := EstimateTreeCount(sample, r.radiusKm)
	props := Classify(sample)
	areaHa := AreaForTrees(treeCount)
	carbon := EstimateCarbon(areaHa, WeightedCarbonRate(props))

	return &Snapshot{
		Location:    loc.Key,
		DisplayName: loc.DisplayName,
		RecordedAt:  r.now().UTC(),
		TreeCount:   treeCount,
		Counts:      props.Counts(treeCount),
		CarbonTons:  carbon,
		AreaHa:      areaHa,
		DataSource:  SourceProvider,
	}
}

// fromSynthetic builds a deterministic fallback snapshot.
func (r *Resolver) fromSynthetic(loc *location.Location) *Snapshot {
	gen := GenerateSynthetic(loc.Key)
	areaHa := AreaForTrees(gen.TreeCount)
	carbon := EstimateCarbon(areaHa, gen.CarbonRate)

	return &Snapshot{
		Location:    loc.Key,
		DisplayName: loc.DisplayName,
		RecordedAt:  r.now().UTC(),
		TreeCount:   gen.TreeCount,
		Counts:      gen.Proportions.Counts(gen.TreeCount),
		CarbonTons:  carbon,
		AreaHa:      areaHa,
		DataSource:  SourceSynthetic,
	}
}

// ResolverStats counts provider outcomes since startup.
type ResolverStats struct {
	ProviderHits        int64
	ProviderUnavailable int64
	ProviderErrors      int64
}

// Stats returns provider outcome counters.
func (r *Resolver) Stats() ResolverStats {
	return ResolverStats{
		ProviderHits:        r.providerHits.Load(),
		ProviderUnavailable: r.providerUnavailable.Load(),
		ProviderErrors:      r.providerErrors.Load(),
	}
}
