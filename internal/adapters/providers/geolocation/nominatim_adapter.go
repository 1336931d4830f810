package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

const defaultSearchTimeout = 10 * time.Second

// NominatimAdapter turns free-text place names into coordinates via the
// Nominatim search API. Nominatim's usage policy requires an
// identifying User-Agent on every request.
type NominatimAdapter struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatimAdapter creates a new Nominatim geocoding adapter
func NewNominatimAdapter(cfg *config.NominatimConfig) providers.GeolocationProvider {
	return NewNominatimAdapterWithOptions(cfg.BaseURL, cfg.UserAgent, &http.Client{Timeout: defaultSearchTimeout})
}

// NewNominatimAdapterWithOptions allows overriding the base URL and
// HTTP client (used for tests).
func NewNominatimAdapterWithOptions(baseURL, userAgent string, httpClient *http.Client) providers.GeolocationProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSearchTimeout}
	}
	return &NominatimAdapter{baseURL: baseURL, userAgent: userAgent, httpClient: httpClient}
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a place name to coordinates. A query with no match
// returns (nil, nil) rather than an error.
func (n *NominatimAdapter) Geocode(ctx context.Context, query string) (*providers.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build geocode request", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("nominatim request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("nominatim returned status %d", resp.StatusCode), nil)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMalformedResponseError("failed to decode nominatim response", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(payload[0].Lat, 64)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError("nominatim returned a non-numeric latitude", err)
	}
	lng, err := strconv.ParseFloat(payload[0].Lon, 64)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError("nominatim returned a non-numeric longitude", err)
	}

	return &providers.GeocodeResult{Lat: lat, Lng: lng, DisplayName: payload[0].DisplayName}, nil
}
