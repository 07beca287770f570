package forest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverview(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	now := time.Now().UTC()

	_, _, err := repo.CreateInitial(ctx, testSnapshot("mumbai", 100, 4000, now))
	require.NoError(t, err)
	_, _, err = repo.CreateInitial(ctx, testSnapshot("delhi", 300, 6000, now))
	require.NoError(t, err)

	agg := NewAggregator(repo, zerolog.Nop())

	overview, err := agg.Overview(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, int64(2), overview.Locations)
	assert.Equal(t, int64(10000), overview.TotalTrees)
	assert.Equal(t, 400.0, overview.TotalCarbonTons)
	// testSnapshot splits 50/30/15/5, so healthy+moderate = 80%.
	assert.InDelta(t, 80.0, overview.HealthScore, 1e-9)
	assert.InDelta(t, 25.0, overview.ForestCoverageHectares, 1e-9)
}

func TestOverviewSingleLocation(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	now := time.Now().UTC()

	_, _, err := repo.CreateInitial(ctx, testSnapshot("mumbai", 100, 4000, now))
	require.NoError(t, err)
	_, _, err = repo.CreateInitial(ctx, testSnapshot("delhi", 300, 6000, now))
	require.NoError(t, err)

	agg := NewAggregator(repo, zerolog.Nop())

	overview, err := agg.Overview(ctx, "mumbai")
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.Locations)
	assert.Equal(t, int64(4000), overview.TotalTrees)
	assert.Equal(t, 100.0, overview.TotalCarbonTons)
}

func TestOverviewEmpty(t *testing.T) {
	agg := NewAggregator(NewInMemoryRepository(), zerolog.Nop())

	overview, err := agg.Overview(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), overview.TotalTrees)
	assert.Equal(t, 0.0, overview.HealthScore)
}

func TestHealthDistribution(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, _, err := repo.CreateInitial(ctx, testSnapshot("mumbai", 100, 10000, time.Now().UTC()))
	require.NoError(t, err)

	agg := NewAggregator(repo, zerolog.Nop())

	dist, err := agg.HealthDistribution(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, int64(10000), dist.Total)
	assert.InDelta(t, 50.0, dist.HealthyPct, 1e-9)
	assert.InDelta(t, 30.0, dist.ModeratePct, 1e-9)
	assert.InDelta(t, 15.0, dist.StressedPct, 1e-9)
	assert.InDelta(t, 5.0, dist.UnhealthyPct, 1e-9)

	sum := dist.HealthyPct + dist.ModeratePct + dist.StressedPct + dist.UnhealthyPct
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestHealthDistributionEmptyIsAllZero(t *testing.T) {
	agg := NewAggregator(NewInMemoryRepository(), zerolog.Nop())

	dist, err := agg.HealthDistribution(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(0), dist.Total)
	assert.Equal(t, HealthCounts{}, dist.Counts)
	assert.Equal(t, 0.0, dist.HealthyPct)
	assert.Equal(t, 0.0, dist.UnhealthyPct)
}

func TestCarbonRollup(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	now := time.Now().UTC()

	_, _, err := repo.CreateInitial(ctx, testSnapshot("mumbai", 100, 4000, now))
	require.NoError(t, err)
	_, _, err = repo.CreateInitial(ctx, testSnapshot("delhi", 300, 6000, now))
	require.NoError(t, err)

	agg := NewAggregator(repo, zerolog.Nop())

	rollup, err := agg.CarbonRollup(ctx)
	require.NoError(t, err)

	assert.Equal(t, 400.0, rollup.TotalCarbonTons)
	assert.Equal(t, 300.0, rollup.AnnualCaptureRate)
	assert.Equal(t, int64(66), rollup.EquivalentCarsOffset)

	require.Len(t, rollup.TopLocations, 2)
	assert.Equal(t, "delhi", rollup.TopLocations[0].Location)
	assert.Equal(t, 300.0, rollup.TopLocations[0].CarbonTons)
}
