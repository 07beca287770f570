package handler

import (
	"net/http"

	"github.com/ecomind/ecomind/internal/api/models"
	"github.com/ecomind/ecomind/internal/api/response"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
)

// AggregateHandler handles rollup endpoints.
type AggregateHandler struct {
	aggregator *forest.Aggregator
}

// NewAggregateHandler creates a new AggregateHandler.
func NewAggregateHandler(aggregator *forest.Aggregator) *AggregateHandler {
	return &AggregateHandler{aggregator: aggregator}
}

// locationFilter canonicalizes the optional ?location= query parameter.
// Empty input and the literal "all" both mean no filter.
func locationFilter(r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("location")
	if raw == "" || raw == "all" {
		return "", true
	}
	key, _, err := location.Canonicalize(raw)
	if err != nil {
		return "", false
	}
	return key, true
}

// Overview handles GET /v1/metrics/overview - tree and carbon totals.
func (h *AggregateHandler) Overview(w http.ResponseWriter, r *http.Request) {
	key, ok := locationFilter(r)
	if !ok {
		response.BadRequest(w, r, "invalid location filter", []models.FieldError{
			{Field: "location", Message: "too short"},
		})
		return
	}

	overview, err := h.aggregator.Overview(r.Context(), key)
	if err != nil {
		response.InternalError(w, r, "failed to aggregate metrics")
		return
	}

	response.JSON(w, r, http.StatusOK, models.OverviewFromDomain(overview, key))
}

// HealthDistribution handles GET /v1/health/distribution - band percentages.
func (h *AggregateHandler) HealthDistribution(w http.ResponseWriter, r *http.Request) {
	key, ok := locationFilter(r)
	if !ok {
		response.BadRequest(w, r, "invalid location filter", []models.FieldError{
			{Field: "location", Message: "too short"},
		})
		return
	}

	dist, err := h.aggregator.HealthDistribution(r.Context(), key)
	if err != nil {
		response.InternalError(w, r, "failed to aggregate health distribution")
		return
	}

	response.JSON(w, r, http.StatusOK, models.DistributionFromDomain(dist, key))
}

// CarbonRollup handles GET /v1/carbon/rollup - fleet-wide carbon figures.
func (h *AggregateHandler) CarbonRollup(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.aggregator.CarbonRollup(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to aggregate carbon rollup")
		return
	}

	response.JSON(w, r, http.StatusOK, models.CarbonRollupFromDomain(rollup))
}
