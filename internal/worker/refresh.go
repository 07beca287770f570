package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/forest"
)

// RefreshGate reports whether scheduled re-sampling is paused.
// Implemented by the feature-flag service; a nil gate means always on.
type RefreshGate interface {
	IsRefreshDisabled(ctx context.Context) bool
}

// RefreshJob re-samples tracked locations so their time series keep moving
// between user requests.
type RefreshJob struct {
	config   RefreshConfig
	logger   zerolog.Logger
	resolver *forest.Resolver
	repo     forest.Repository
	gate     RefreshGate

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns           int64
	SkippedRuns         int64
	LocationsRefreshed  int64
	LocationsFailed     int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Resolver *forest.Resolver
	Repo     forest.Repository
	Gate     RefreshGate
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.SeedLocations) == 0 {
		config.SeedLocations = DefaultSeedLocations()
	}
	if config.Concurrency == 0 {
		config.Concurrency = 3
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &RefreshJob{
		config:   config,
		logger:   cfg.Logger,
		resolver: cfg.Resolver,
		repo:     cfg.Repo,
		gate:     cfg.Gate,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalLocations int
	Successful     int
	Failed         int
	Skipped        bool
	Errors         []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Location string
	Error    string
}

// Run samples every tracked location plus the configured seeds.
// Seeds that have never been resolved get their first snapshot here.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	if j.gate != nil && j.gate.IsRefreshDisabled(ctx) {
		j.logger.Info().Msg("refresh jobs disabled by flag, skipping run")
		result.Skipped = true
		result.EndTime = time.Now()
		j.updateMetrics(result)
		return result
	}

	locations := j.collectLocations(ctx)
	result.TotalLocations = len(locations)

	j.logger.Info().
		Int("total_locations", result.TotalLocations).
		Int("concurrency", j.config.Concurrency).
		Msg("starting snapshot refresh job")

	locationsChan := make(chan string, len(locations))
	resultsChan := make(chan locationResult, len(locations))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, locationsChan, resultsChan)
		}()
	}

	for _, loc := range locations {
		locationsChan <- loc
	}
	close(locationsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for lr := range resultsChan {
		if lr.err == nil {
			result.Successful++
		} else {
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				Location: lr.location,
				Error:    lr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("snapshot refresh job completed")

	return result
}

// collectLocations merges stored location keys with the configured seeds,
// deduplicated, seeds last.
func (j *RefreshJob) collectLocations(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var locations []string

	summaries, err := j.repo.ListLatest(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("failed to list stored locations, refreshing seeds only")
	} else {
		for _, s := range summaries {
			if _, ok := seen[s.Latest.Location]; ok {
				continue
			}
			seen[s.Latest.Location] = struct{}{}
			locations = append(locations, s.Latest.Location)
		}
	}

	for _, seed := range j.config.SeedLocations {
		if _, ok := seen[seed]; ok {
			continue
		}
		seen[seed] = struct{}{}
		locations = append(locations, seed)
	}

	return locations
}

type locationResult struct {
	location string
	err      error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, locations <-chan string, results chan<- locationResult) {
	for loc := range locations {
		select {
		case <-ctx.Done():
			return
		default:
			results <- locationResult{location: loc, err: j.refreshLocation(ctx, loc)}
		}
	}
}

// refreshLocation appends a fresh sample for one location. Locations the
// repository has never seen get their initial snapshot instead, so seeds
// keep the first-write idempotency intact.
func (j *RefreshJob) refreshLocation(ctx context.Context, loc string) error {
	locCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if _, err := j.repo.GetLatest(locCtx, loc); err != nil {
		_, _, err := j.resolver.GetMetrics(locCtx, loc)
		return err
	}

	_, err := j.resolver.ForceSample(locCtx, loc)
	return err
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	if result.Skipped {
		j.metrics.SkippedRuns++
	}
	j.metrics.LocationsRefreshed += int64(result.Successful)
	j.metrics.LocationsFailed += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		SkippedRuns:        j.metrics.SkippedRuns,
		LocationsRefreshed: j.metrics.LocationsRefreshed,
		LocationsFailed:    j.metrics.LocationsFailed,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"skipped_runs":        m.SkippedRuns,
		"locations_refreshed": m.LocationsRefreshed,
		"locations_failed":    m.LocationsFailed,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
		"total_duration":      m.TotalDuration.String(),
	}
}
