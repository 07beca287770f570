package sentinelhub_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/vegetation"
	"github.com/ecomind/ecomind/internal/vegetation/sentinelhub"
)

var testCoords = location.Coordinates{Lat: 16.9891, Lon: 82.2475}

func statsBody(ndviMean, ndviStd, ndviMin, ndviMax, eviMean float64, samples int64) string {
	body := map[string]any{
		"data": []map[string]any{
			{
				"interval": map[string]string{"from": "2026-07-01T00:00:00Z", "to": "2026-08-01T00:00:00Z"},
				"outputs": map[string]any{
					"ndvi": map[string]any{
						"bands": map[string]any{
							"B0": map[string]any{
								"stats": map[string]any{
									"mean": ndviMean, "stDev": ndviStd,
									"min": ndviMin, "max": ndviMax,
									"sampleCount": samples,
								},
							},
						},
					},
					"evi": map[string]any{
						"bands": map[string]any{
							"B0": map[string]any{
								"stats": map[string]any{
									"mean": eviMean, "sampleCount": samples,
								},
							},
						},
					},
				},
			},
		},
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestFetchSample(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "input")
		assert.Contains(t, req, "aggregation")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(statsBody(0.62, 0.08, 0.31, 0.85, 0.41, 12000)))
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	sample, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	require.NoError(t, err)

	assert.InDelta(t, 0.62, sample.NDVIMean, 1e-9)
	assert.InDelta(t, 0.08, sample.NDVIStd, 1e-9)
	assert.InDelta(t, 0.31, sample.NDVIMin, 1e-9)
	assert.InDelta(t, 0.85, sample.NDVIMax, 1e-9)
	assert.InDelta(t, 0.41, sample.EVIMean, 1e-9)
}

func TestFetchSampleSendsEvalscript(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(statsBody(0.5, 0.05, 0.2, 0.8, 0.3, 1000)))
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	_, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	require.NoError(t, err)

	agg, ok := captured["aggregation"].(map[string]any)
	require.True(t, ok)

	// The statistics request must carry the script that defines the outputs
	// the response parser reads.
	script, ok := agg["evalscript"].(string)
	require.True(t, ok)
	assert.Contains(t, script, `id: "ndvi"`)
	assert.Contains(t, script, `id: "evi"`)
	assert.Contains(t, script, "B08")
	assert.Contains(t, script, "dataMask")
}

func TestFetchSampleClampsOutOfRangeValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statsBody(1.8, -0.3, -2.0, 3.1, -1.5, 400)))
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	sample, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	require.NoError(t, err)

	assert.Equal(t, 1.0, sample.NDVIMean)
	assert.Equal(t, 0.0, sample.NDVIStd)
	assert.Equal(t, -1.0, sample.NDVIMin)
	assert.Equal(t, 1.0, sample.NDVIMax)
	assert.Equal(t, -1.0, sample.EVIMean)
}

func TestFetchSampleNoObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	_, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	assert.ErrorIs(t, err, vegetation.ErrNoObservations)
}

func TestFetchSampleZeroSampleCountIsNoObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(statsBody(0.5, 0.1, 0.2, 0.8, 0.3, 0)))
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	_, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	assert.ErrorIs(t, err, vegetation.ErrNoObservations)
}

func TestFetchSampleServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := sentinelhub.NewClient(sentinelhub.ClientConfig{
		AccessToken: "token-123",
		BaseURL:     server.URL,
	})

	_, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, vegetation.ErrProviderUnavailable)
}

func TestFetchSampleMissingTokenIsUnavailable(t *testing.T) {
	client := sentinelhub.NewClient(sentinelhub.ClientConfig{})

	_, err := client.FetchSample(context.Background(), testCoords, 5.0, 30)
	assert.ErrorIs(t, err, vegetation.ErrProviderUnavailable)
}

func TestName(t *testing.T) {
	client := sentinelhub.NewClient(sentinelhub.ClientConfig{AccessToken: "t"})
	assert.Equal(t, "sentinelhub", client.Name())
}
