// Package handler provides HTTP handlers for the EcoMind API.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecomind/ecomind/internal/api/models"
	"github.com/ecomind/ecomind/internal/api/response"
	"github.com/ecomind/ecomind/internal/forest"
	"github.com/ecomind/ecomind/internal/location"
)

// ForestHandler handles location and snapshot endpoints.
type ForestHandler struct {
	resolver  *forest.Resolver
	locations *location.Resolver
	repo      forest.Repository
}

// NewForestHandler creates a new ForestHandler.
func NewForestHandler(resolver *forest.Resolver, locations *location.Resolver, repo forest.Repository) *ForestHandler {
	return &ForestHandler{
		resolver:  resolver,
		locations: locations,
		repo:      repo,
	}
}

// ListLocations handles GET /v1/locations - list all tracked locations.
func (h *ForestHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListLatest(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to list locations")
		return
	}

	items := make([]models.LocationListItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, models.LocationListItem{
			ForestSnapshot: models.ForestSnapshotFromDomain(s.Latest),
			SampleCount:    s.SampleCount,
		})
	}

	response.JSON(w, r, http.StatusOK, models.LocationListResponse{
		Items: items,
		Total: len(items),
	})
}

// SearchLocations handles GET /v1/locations/search?q= - substring search over
// tracked locations, resolving and persisting the query on a miss.
func (h *ForestHandler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "query parameter q is required", []models.FieldError{
			{Field: "q", Message: "required"},
		})
		return
	}

	result, err := h.resolver.SearchOrCreate(r.Context(), query)
	if err != nil {
		if errors.Is(err, location.ErrInvalidInput) {
			response.BadRequest(w, r, "location name must be at least 2 characters", []models.FieldError{
				{Field: "q", Message: "too short"},
			})
			return
		}
		response.InternalError(w, r, "failed to search locations")
		return
	}

	items := make([]models.ForestSnapshot, 0, len(result.Snapshots))
	for _, snap := range result.Snapshots {
		items = append(items, models.ForestSnapshotFromDomain(snap))
	}

	response.JSON(w, r, http.StatusOK, models.LocationSearchResponse{
		Query:         query,
		Items:         items,
		FoundExisting: result.FoundExisting,
	})
}

// GetLocation handles GET /v1/locations/{location} - resolve a location and
// return its snapshot, creating it on first sight.
func (h *ForestHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	input := chi.URLParam(r, "location")

	snap, created, err := h.resolver.GetMetrics(r.Context(), input)
	if err != nil {
		if errors.Is(err, location.ErrInvalidInput) {
			response.BadRequest(w, r, "location name must be at least 2 characters", []models.FieldError{
				{Field: "location", Message: "too short"},
			})
			return
		}
		response.InternalError(w, r, "failed to resolve location")
		return
	}

	// Resolution is deterministic, so re-resolving for the coordinates is safe.
	loc, _ := h.locations.Resolve(input)

	body := models.LocationMetricsFromDomain(snap, loc, created)
	if created {
		response.Created(w, r, "/v1/locations/"+snap.Location, body)
		return
	}
	response.JSON(w, r, http.StatusOK, body)
}

// CreateSample handles POST /v1/locations/{location}/samples - force a fresh
// sample, appending to the location's time series.
func (h *ForestHandler) CreateSample(w http.ResponseWriter, r *http.Request) {
	input := chi.URLParam(r, "location")

	snap, err := h.resolver.ForceSample(r.Context(), input)
	if err != nil {
		if errors.Is(err, location.ErrInvalidInput) {
			response.BadRequest(w, r, "location name must be at least 2 characters", []models.FieldError{
				{Field: "location", Message: "too short"},
			})
			return
		}
		response.InternalError(w, r, "failed to sample location")
		return
	}

	response.Created(w, r, "/v1/locations/"+snap.Location, models.ForestSnapshotFromDomain(snap))
}
