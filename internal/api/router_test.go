package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomind/ecomind/internal/api"
	"github.com/ecomind/ecomind/internal/api/models"
	"github.com/ecomind/ecomind/internal/featureflags"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
)

func newTestRouter() http.Handler {
	logger := zerolog.New(io.Discard)

	locations := location.NewResolver()
	repo := forest.NewInMemoryRepository()
	resolver := forest.NewResolver(forest.ResolverConfig{
		Locations:  locations,
		Repository: repo,
		Logger:     logger,
	})
	aggregator := forest.NewAggregator(repo, logger)

	flagService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepositoryWithDefaults(),
		Logger:     logger,
	})

	return api.NewRouter(api.RouterConfig{
		Version:            "test",
		BuildTime:          "2024-01-01T00:00:00Z",
		Logger:             logger,
		Resolver:           resolver,
		Locations:          locations,
		Repository:         repo,
		Aggregator:         aggregator,
		FeatureFlagService: flagService,
	})
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/ready", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var health models.Health
	err := json.Unmarshal(w.Body.Bytes(), &health)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_SystemStatus(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var status models.SystemStatus
	err := json.Unmarshal(w.Body.Bytes(), &status)
	require.NoError(t, err)

	assert.Equal(t, models.HealthStatusOK, status.Status)
	assert.NotEmpty(t, status.Subsystems)
}

func TestRouter_GetLocation_CreatesOnFirstSight(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/v1/locations/mumbai", w.Header().Get("Location"))

	var metrics models.LocationMetrics
	err := json.Unmarshal(w.Body.Bytes(), &metrics)
	require.NoError(t, err)

	assert.Equal(t, "mumbai", metrics.Location)
	assert.Equal(t, "Mumbai", metrics.DisplayName)
	assert.True(t, metrics.Created)
	assert.True(t, metrics.IsInitial)
	assert.Positive(t, metrics.TreeCount)
	assert.Positive(t, metrics.CarbonTons)
	require.NotNil(t, metrics.Coordinates)
	assert.InDelta(t, 19.0760, metrics.Coordinates.Lat, 1e-6)
	assert.InDelta(t, 72.8777, metrics.Coordinates.Lon, 1e-6)

	total := metrics.Healthy + metrics.Moderate + metrics.Stressed + metrics.Unhealthy
	assert.Equal(t, metrics.TreeCount, total)
}

func TestRouter_GetLocation_SecondCallReturnsExisting(t *testing.T) {
	router := newTestRouter()

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))
	assert.Equal(t, http.StatusOK, second.Code)

	var a, b models.LocationMetrics
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))

	assert.False(t, b.Created)
	assert.Equal(t, a.TreeCount, b.TreeCount)
	assert.Equal(t, a.CarbonTons, b.CarbonTons)
}

func TestRouter_GetLocation_TooShort(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/x", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	err := json.Unmarshal(w.Body.Bytes(), &problem)
	require.NoError(t, err)

	assert.Equal(t, models.ProblemTypeValidation, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_ListLocations(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/locations", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var list models.LocationListResponse
	err := json.Unmarshal(w.Body.Bytes(), &list)
	require.NoError(t, err)

	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Items, 2)
	assert.Equal(t, int64(1), list.Items[0].SampleCount)
}

func TestRouter_SearchLocations_Miss(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search?q=bangalore", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LocationSearchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.False(t, resp.FoundExisting)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "bangalore", resp.Items[0].Location)
}

func TestRouter_SearchLocations_Hit(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search?q=mum", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.LocationSearchResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.True(t, resp.FoundExisting)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "mumbai", resp.Items[0].Location)
}

func TestRouter_SearchLocations_MissingQuery(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/search", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreateSample(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))

	req := httptest.NewRequest(http.MethodPost, "/v1/locations/mumbai/samples", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var snap models.ForestSnapshot
	err := json.Unmarshal(w.Body.Bytes(), &snap)
	require.NoError(t, err)

	assert.Equal(t, "mumbai", snap.Location)
	assert.False(t, snap.IsInitial)

	// The list now reports two samples for the location.
	list := httptest.NewRecorder()
	router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/v1/locations", http.NoBody))

	var resp models.LocationListResponse
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, int64(2), resp.Items[0].SampleCount)
}

func TestRouter_CreateSample_RejectsNonJSONBody(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/locations/mumbai/samples", bytes.NewReader([]byte("reason=test")))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeUnsupportedMedia, problem.Type)
}

func TestRouter_Overview(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/overview", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var overview models.OverviewResponse
	err := json.Unmarshal(w.Body.Bytes(), &overview)
	require.NoError(t, err)

	assert.Equal(t, int64(2), overview.Locations)
	assert.Positive(t, overview.TotalTrees)
	assert.Positive(t, overview.TotalCarbonTons)
	assert.Greater(t, overview.HealthScore, 0.0)
	assert.LessOrEqual(t, overview.HealthScore, 100.0)
}

func TestRouter_Overview_SingleLocation(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/overview?location=Mumbai", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var overview models.OverviewResponse
	err := json.Unmarshal(w.Body.Bytes(), &overview)
	require.NoError(t, err)

	assert.Equal(t, "mumbai", overview.Location)
	assert.Equal(t, int64(1), overview.Locations)
}

func TestRouter_HealthDistribution(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/health/distribution", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var dist models.DistributionResponse
	err := json.Unmarshal(w.Body.Bytes(), &dist)
	require.NoError(t, err)

	assert.Positive(t, dist.Total)
	sum := dist.HealthyPct + dist.ModeratePct + dist.StressedPct + dist.UnhealthyPct
	assert.InDelta(t, 100.0, sum, 1e-6)
}

func TestRouter_CarbonRollup(t *testing.T) {
	router := newTestRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/mumbai", http.NoBody))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/locations/delhi", http.NoBody))

	req := httptest.NewRequest(http.MethodGet, "/v1/carbon/rollup", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var rollup models.CarbonRollupResponse
	err := json.Unmarshal(w.Body.Bytes(), &rollup)
	require.NoError(t, err)

	assert.Positive(t, rollup.TotalCarbonTons)
	assert.InDelta(t, rollup.TotalCarbonTons*0.75, rollup.AnnualCaptureRate, 1e-9)
	require.Len(t, rollup.TopLocations, 2)
	assert.GreaterOrEqual(t, rollup.TopLocations[0].CarbonTons, rollup.TopLocations[1].CarbonTons)
}

func TestRouter_ListFeatureFlags(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/feature-flags", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var list featureflags.FlagList
	err := json.Unmarshal(w.Body.Bytes(), &list)
	require.NoError(t, err)

	keys := make([]string, 0, len(list.Items))
	for _, f := range list.Items {
		keys = append(keys, f.Key)
	}
	assert.Contains(t, keys, featureflags.FlagVegetationProviderDisabled)
	assert.Contains(t, keys, featureflags.FlagRefreshJobsDisabled)
}

func TestRouter_UpsertFeatureFlags(t *testing.T) {
	router := newTestRouter()

	input := featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{
			{Key: featureflags.FlagVegetationProviderDisabled, Value: true},
		},
		Reason: "provider maintenance window",
	}
	body, _ := json.Marshal(input)

	req := httptest.NewRequest(http.MethodPut, "/v1/admin/feature-flags", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_UpsertFeatureFlags_EmptyBody(t *testing.T) {
	router := newTestRouter()

	body, _ := json.Marshal(featureflags.FlagUpdateRequest{})

	req := httptest.NewRequest(http.MethodPut, "/v1/admin/feature-flags", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_InvalidateFeatureFlagCache(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/feature-flags/invalidate", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRouter_RequestID_Generated(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID)
	assert.Contains(t, requestID, "req_")
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/v1/nonexistent", http.NoBody)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
