// Package sentinelhub implements the vegetation provider against the
// Sentinel Hub Statistics API (Sentinel-2 L2A collection).
package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecomind/ecomind/internal/location"
	"github.com/ecomind/ecomind/internal/provider/resilience"
	"github.com/ecomind/ecomind/internal/vegetation"
)

const (
	// ProviderName identifies this vegetation provider.
	ProviderName = "sentinelhub"

	// DefaultBaseURL is the Sentinel Hub Statistics API base URL.
	DefaultBaseURL = "https://services.sentinel-hub.com/api/v1/statistics"

	// DefaultMaxCloudCover filters out scenes with more cloud than this (%).
	DefaultMaxCloudCover = 20.0
)

// evalscript defines the ndvi and evi outputs the statistics request asks
// for. The Statistics API computes nothing by itself; without this script
// the outputs referenced in the response parsing would not exist.
const evalscript = `//VERSION=3
function setup() {
  return {
    input: [{bands: ["B02", "B04", "B08", "dataMask"]}],
    output: [
      {id: "ndvi", bands: 1, sampleType: "FLOAT32"},
      {id: "evi", bands: 1, sampleType: "FLOAT32"},
      {id: "dataMask", bands: 1}
    ]
  };
}
function evaluatePixel(s) {
  let ndvi = (s.B08 - s.B04) / (s.B08 + s.B04);
  let evi = 2.5 * (s.B08 - s.B04) / (s.B08 + 6.0 * s.B04 - 7.5 * s.B02 + 1.0);
  return {ndvi: [ndvi], evi: [evi], dataMask: [s.dataMask]};
}`

// ClientConfig holds configuration for the Sentinel Hub client.
type ClientConfig struct {
	// AccessToken is the OAuth bearer token (required).
	AccessToken string

	// BaseURL is the Statistics API URL (optional).
	BaseURL string

	// MaxCloudCover is the scene cloud-cover ceiling in percent (optional).
	MaxCloudCover float64

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with single-attempt defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Sentinel Hub Statistics API client.
type Client struct {
	accessToken   string
	baseURL       string
	maxCloudCover float64
	httpClient    *resilience.Client
	logger        zerolog.Logger
}

// NewClient creates a new Sentinel Hub client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxCloudCover := cfg.MaxCloudCover
	if maxCloudCover == 0 {
		maxCloudCover = DefaultMaxCloudCover
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.SingleAttemptClientConfig(ProviderName))
	}

	return &Client{
		accessToken:   cfg.AccessToken,
		baseURL:       baseURL,
		maxCloudCover: maxCloudCover,
		httpClient:    httpClient,
		logger:        cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// FetchSample fetches NDVI/EVI statistics for the square region of radiusKm
// around coords over the last lookbackDays.
func (c *Client) FetchSample(ctx context.Context, coords location.Coordinates, radiusKm float64, lookbackDays int) (*vegetation.Sample, error) {
	if c.accessToken == "" {
		return nil, vegetation.ErrProviderUnavailable
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -lookbackDays)

	body, err := json.Marshal(c.buildRequest(coords, radiusKm, from, to))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var shResp statisticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&shResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return c.toSample(&shResp)
}

// buildRequest assembles the Statistics API request for a square region.
func (c *Client) buildRequest(coords location.Coordinates, radiusKm float64, from, to time.Time) statisticsRequest {
	// Approximate degrees per kilometre; longitude shrinks away from the
	// equator but the statistics are aggregated over the whole box anyway.
	degLat := radiusKm / 110.574
	degLon := radiusKm / 111.320

	return statisticsRequest{
		Input: statisticsInput{
			Bounds: bounds{
				BBox: [4]float64{
					coords.Lon - degLon, coords.Lat - degLat,
					coords.Lon + degLon, coords.Lat + degLat,
				},
				Properties: boundsProperties{CRS: "http://www.opengis.net/def/crs/EPSG/0/4326"},
			},
			Data: []dataFilter{{
				Type: "sentinel-2-l2a",
				DataFilter: filter{
					TimeRange:        timeRange{From: from.Format(time.RFC3339), To: to.Format(time.RFC3339)},
					MaxCloudCoverage: c.maxCloudCover,
				},
			}},
		},
		Aggregation: aggregation{
			TimeRange:           timeRange{From: from.Format(time.RFC3339), To: to.Format(time.RFC3339)},
			AggregationInterval: aggregationInterval{Of: fmt.Sprintf("P%dD", int(to.Sub(from).Hours()/24))},
			Evalscript:          evalscript,
		},
	}
}

// toSample converts a Statistics API response to the domain model.
// Intervals are scanned newest-first; the first interval with valid NDVI
// statistics wins.
func (c *Client) toSample(resp *statisticsResponse) (*vegetation.Sample, error) {
	for i := len(resp.Data) - 1; i >= 0; i-- {
		ndvi, ok := resp.Data[i].Outputs["ndvi"]
		if !ok || ndvi.Bands.B0.Stats.SampleCount == 0 {
			continue
		}

		sample := &vegetation.Sample{
			NDVIMean: ndvi.Bands.B0.Stats.Mean,
			NDVIStd:  ndvi.Bands.B0.Stats.StDev,
			NDVIMin:  ndvi.Bands.B0.Stats.Min,
			NDVIMax:  ndvi.Bands.B0.Stats.Max,
		}
		if evi, ok := resp.Data[i].Outputs["evi"]; ok {
			sample.EVIMean = evi.Bands.B0.Stats.Mean
		}
		sample.Clamp()

		c.logger.Debug().
			Float64("ndvi_mean", sample.NDVIMean).
			Int("intervals", len(resp.Data)).
			Msg("vegetation sample fetched")

		return sample, nil
	}

	return nil, vegetation.ErrNoObservations
}

// Sentinel Hub Statistics API request/response structures.

type statisticsRequest struct {
	Input       statisticsInput `json:"input"`
	Aggregation aggregation     `json:"aggregation"`
}

type statisticsInput struct {
	Bounds bounds       `json:"bounds"`
	Data   []dataFilter `json:"data"`
}

type bounds struct {
	BBox       [4]float64       `json:"bbox"`
	Properties boundsProperties `json:"properties"`
}

type boundsProperties struct {
	CRS string `json:"crs"`
}

type dataFilter struct {
	Type       string `json:"type"`
	DataFilter filter `json:"dataFilter"`
}

type filter struct {
	TimeRange        timeRange `json:"timeRange"`
	MaxCloudCoverage float64   `json:"maxCloudCoverage"`
}

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type aggregation struct {
	TimeRange           timeRange           `json:"timeRange"`
	AggregationInterval aggregationInterval `json:"aggregationInterval"`
	Evalscript          string              `json:"evalscript"`
}

type aggregationInterval struct {
	Of string `json:"of"`
}

type statisticsResponse struct {
	Data []interval `json:"data"`
}

type interval struct {
	Interval struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"interval"`
	Outputs map[string]output `json:"outputs"`
}

type output struct {
	Bands struct {
		B0 struct {
			Stats stats `json:"stats"`
		} `json:"B0"`
	} `json:"bands"`
}

type stats struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	StDev       float64 `json:"stDev"`
	SampleCount int64   `json:"sampleCount"`
}
