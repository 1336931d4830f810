package handlers

import (
	"net/http"
	"strings"

	"github.com/supply-map/backend/internal/domain/providers"
)

// GeolocationHandler handles geocoding endpoints.
type GeolocationHandler struct {
	provider providers.GeolocationProvider
}

// NewGeolocationHandler creates a new geolocation handler.
func NewGeolocationHandler(provider providers.GeolocationProvider) *GeolocationHandler {
	return &GeolocationHandler{provider: provider}
}

// Geocode handles GET /api/geocode?q=...
func (h *GeolocationHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	result, err := h.provider.Geocode(r.Context(), query)
	if err != nil {
		respondWithError(w, http.StatusBadGateway, "failed to geocode query")
		return
	}
	if result == nil {
		respondWithError(w, http.StatusNotFound, "no results for query")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
