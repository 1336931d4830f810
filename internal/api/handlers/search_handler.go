package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/supply-map/backend/internal/application/services"
	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/infrastructure/observability"
)

// SearchService defines the search operations used by the handler.
type SearchService interface {
	Search(ctx context.Context, item string, origin geo.Point, filters services.SearchFilters) (*entities.SearchOutcome, error)
}

// SearchHandler handles store search requests.
type SearchHandler struct {
	service SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(service SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

type searchRequest struct {
	Item    string        `json:"item"`
	Lat     *float64      `json:"lat"`
	Lng     *float64      `json:"lng"`
	Filters searchFilters `json:"filters"`
}

type searchFilters struct {
	MaxDistanceKm *float64 `json:"maxDistanceKm"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var payload searchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.Item = strings.TrimSpace(payload.Item)
	if payload.Item == "" {
		respondWithError(w, http.StatusBadRequest, "item is required")
		return
	}
	if payload.Lat == nil || payload.Lng == nil {
		respondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}
	if *payload.Lat < -90 || *payload.Lat > 90 || *payload.Lng < -180 || *payload.Lng > 180 {
		respondWithError(w, http.StatusBadRequest, "lat or lng is out of range")
		return
	}

	filters := services.SearchFilters{}
	if payload.Filters.MaxDistanceKm != nil {
		maxKm := *payload.Filters.MaxDistanceKm
		if math.IsNaN(maxKm) || math.IsInf(maxKm, 0) || maxKm <= 0 {
			respondWithError(w, http.StatusBadRequest, "maxDistanceKm must be a positive number")
			return
		}
		filters.MaxDistanceKm = &maxKm
	}

	origin := geo.Point{Lat: *payload.Lat, Lng: *payload.Lng}

	outcome, err := h.service.Search(r.Context(), payload.Item, origin, filters)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("search failed")
		respondWithError(w, http.StatusInternalServerError, "search failed")
		return
	}

	respondWithJSON(w, http.StatusOK, outcome)
}
