package forest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecomind/ecomind/internal/vegetation"
)

func TestClassifyRegimes(t *testing.T) {
	tests := []struct {
		name   string
		sample vegetation.Sample
		want   Proportions
	}{
		{
			name:   "dense healthy canopy",
			sample: vegetation.Sample{NDVIMean: 0.65, EVIMean: 0.45},
			want:   Proportions{Healthy: 0.70, Moderate: 0.20, Stressed: 0.08, Unhealthy: 0.02},
		},
		{
			name:   "moderate canopy",
			sample: vegetation.Sample{NDVIMean: 0.45, EVIMean: 0.25},
			want:   Proportions{Healthy: 0.50, Moderate: 0.30, Stressed: 0.15, Unhealthy: 0.05},
		},
		{
			name:   "sparse canopy",
			sample: vegetation.Sample{NDVIMean: 0.25, EVIMean: 0.15},
			want:   Proportions{Healthy: 0.30, Moderate: 0.30, Stressed: 0.25, Unhealthy: 0.15},
		},
		{
			name:   "degraded",
			sample: vegetation.Sample{NDVIMean: 0.1, EVIMean: 0.05},
			want:   Proportions{Healthy: 0.15, Moderate: 0.25, Stressed: 0.35, Unhealthy: 0.25},
		},
		{
			name:   "high ndvi but low evi falls through",
			sample: vegetation.Sample{NDVIMean: 0.7, EVIMean: 0.15},
			want:   Proportions{Healthy: 0.15, Moderate: 0.25, Stressed: 0.35, Unhealthy: 0.25},
		},
		{
			name:   "boundary values are exclusive",
			sample: vegetation.Sample{NDVIMean: 0.6, EVIMean: 0.4},
			want:   Proportions{Healthy: 0.50, Moderate: 0.30, Stressed: 0.15, Unhealthy: 0.05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&tt.sample)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, 1.0, got.Sum(), 1e-6)
		})
	}
}

func TestCountsReconcileExactly(t *testing.T) {
	tests := []struct {
		name      string
		props     Proportions
		treeCount int64
		want      HealthCounts
	}{
		{
			name:      "regime A over ten thousand trees",
			props:     Proportions{Healthy: 0.70, Moderate: 0.20, Stressed: 0.08, Unhealthy: 0.02},
			treeCount: 10000,
			want:      HealthCounts{Healthy: 7000, Moderate: 2000, Stressed: 800, Unhealthy: 200},
		},
		{
			name:      "remainder absorbed by last band",
			props:     Proportions{Healthy: 0.333, Moderate: 0.333, Stressed: 0.333, Unhealthy: 0.001},
			treeCount: 1000,
			want:      HealthCounts{Healthy: 333, Moderate: 333, Stressed: 333, Unhealthy: 1},
		},
		{
			name:      "tiny population",
			props:     Proportions{Healthy: 0.70, Moderate: 0.20, Stressed: 0.08, Unhealthy: 0.02},
			treeCount: 3,
			want:      HealthCounts{Healthy: 2, Moderate: 0, Stressed: 0, Unhealthy: 1},
		},
		{
			name:      "zero trees",
			props:     Proportions{Healthy: 0.5, Moderate: 0.3, Stressed: 0.15, Unhealthy: 0.05},
			treeCount: 0,
			want:      HealthCounts{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.props.Counts(tt.treeCount)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.treeCount, got.Total())
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := Proportions{Healthy: 0.6, Moderate: 0.3, Stressed: 0.2, Unhealthy: 0.1}
	norm := raw.Normalize()
	assert.InDelta(t, 1.0, norm.Sum(), 1e-9)
	assert.InDelta(t, 0.5, norm.Healthy, 1e-9)

	negative := Proportions{Healthy: 0.8, Moderate: 0.4, Stressed: -0.1, Unhealthy: -0.1}
	norm = negative.Normalize()
	assert.InDelta(t, 1.0, norm.Sum(), 1e-9)
	assert.Equal(t, 0.0, norm.Stressed)
	assert.Equal(t, 0.0, norm.Unhealthy)

	degenerate := Proportions{}
	norm = degenerate.Normalize()
	assert.InDelta(t, 1.0, norm.Sum(), 1e-9)
	assert.Equal(t, 0.25, norm.Healthy)
}

func TestEstimateTreeCount(t *testing.T) {
	tests := []struct {
		name     string
		ndviMean float64
		want     int64
	}{
		// region area = (2*5)^2 * 100 = 10000 ha
		{name: "dense", ndviMean: 0.6, want: int64(10000 * 0.70 * (400 + 400*0.6))},
		{name: "moderate", ndviMean: 0.4, want: int64(10000 * 0.40 * (400 + 400*0.4))},
		{name: "sparse", ndviMean: 0.25, want: int64(10000 * 0.20 * (400 + 400*0.25))},
		{name: "barren", ndviMean: 0.1, want: int64(10000 * 0.05 * (400 + 400*0.1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := &vegetation.Sample{NDVIMean: tt.ndviMean}
			assert.Equal(t, tt.want, EstimateTreeCount(sample, 5.0))
		})
	}
}

func TestEstimateTreeCountNeverNegative(t *testing.T) {
	sample := &vegetation.Sample{NDVIMean: -1.0}
	assert.GreaterOrEqual(t, EstimateTreeCount(sample, 5.0), int64(0))
}
