package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

const (
	googleProviderName = "google"
	googleTravelMode   = "driving"
	defaultCallTimeout = 12 * time.Second
)

// GoogleAdapter resolves road distances through the Google Distance
// Matrix API (the metered provider). Native units are meters and
// seconds; they are normalized to km (two decimals) and whole minutes
// here. A per-element status other than OK decodes to the no-route
// sentinel rather than failing the call.
type GoogleAdapter struct {
	credentials CredentialSource
	baseURL     string
	httpClient  *http.Client
}

// NewGoogleAdapter creates a new Google Distance Matrix adapter
func NewGoogleAdapter(cfg *config.GoogleConfig, credentials CredentialSource) providers.DistanceProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return NewGoogleAdapterWithOptions(credentials, cfg.BaseURL, &http.Client{Timeout: timeout})
}

// NewGoogleAdapterWithOptions allows overriding the base URL and HTTP
// client (used for tests).
func NewGoogleAdapterWithOptions(credentials CredentialSource, baseURL string, httpClient *http.Client) providers.DistanceProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultCallTimeout}
	}
	return &GoogleAdapter{credentials: credentials, baseURL: baseURL, httpClient: httpClient}
}

// Name identifies the provider in logs and diagnostics
func (g *GoogleAdapter) Name() string {
	return googleProviderName
}

type distanceMatrixValue struct {
	Value *float64 `json:"value"`
}

type distanceMatrixElement struct {
	Status   string               `json:"status"`
	Distance *distanceMatrixValue `json:"distance"`
	Duration *distanceMatrixValue `json:"duration"`
}

type distanceMatrixRow struct {
	Elements []distanceMatrixElement `json:"elements"`
}

type distanceMatrixResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message"`
	Rows         []distanceMatrixRow `json:"rows"`
}

// Resolve returns road distances from origin to every destination, in
// destination order.
func (g *GoogleAdapter) Resolve(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]providers.RoadDistance, error) {
	if len(destinations) == 0 {
		return []providers.RoadDistance{}, nil
	}

	// Credential failures must surface before any network I/O.
	key, err := g.credentials.Credential(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]providers.RoadDistance, 0, len(destinations))
	for _, chunk := range chunkPoints(destinations, maxDestinationsPerRequest) {
		chunkResults, err := g.resolveChunk(ctx, key, origin, chunk)
		if err != nil {
			return nil, err
		}
		results = append(results, chunkResults...)
	}

	if len(results) != len(destinations) {
		return nil, apperrors.NewResultCountMismatchError(
			fmt.Sprintf("google returned %d results for %d destinations", len(results), len(destinations)))
	}
	return results, nil
}

func (g *GoogleAdapter) resolveChunk(ctx context.Context, key string, origin geo.Point, chunk []geo.Point) ([]providers.RoadDistance, error) {
	params := url.Values{}
	params.Set("origins", formatPoint(origin))
	params.Set("destinations", formatPoints(chunk))
	params.Set("mode", googleTravelMode)
	params.Set("key", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build distance matrix request", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(googleProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("google returned status %d", resp.StatusCode), nil)
	}

	var payload distanceMatrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMalformedResponseError("failed to decode distance matrix response", err)
	}

	if payload.Status != "OK" {
		message := payload.Status
		if payload.ErrorMessage != "" {
			message += " - " + payload.ErrorMessage
		}
		return nil, apperrors.NewSourceUnavailableError("google rejected the request: "+message, nil)
	}
	if len(payload.Rows) != 1 {
		return nil, apperrors.NewMalformedResponseError(
			fmt.Sprintf("expected 1 row, got %d", len(payload.Rows)), nil)
	}

	elements := payload.Rows[0].Elements
	if len(elements) != len(chunk) {
		return nil, apperrors.NewResultCountMismatchError(
			fmt.Sprintf("google returned %d elements for %d destinations", len(elements), len(chunk)))
	}

	results := make([]providers.RoadDistance, 0, len(elements))
	for _, el := range elements {
		// Route not found for this single pair; keep the call alive.
		if el.Status != "OK" || el.Distance == nil || el.Distance.Value == nil {
			results = append(results, providers.RoadDistance{})
			continue
		}
		rd := providers.RoadDistance{DistanceKm: roundMetersToKm(*el.Distance.Value)}
		if el.Duration != nil && el.Duration.Value != nil {
			rd.DurationMinutes = minutesFromSeconds(*el.Duration.Value)
		}
		results = append(results, rd)
	}
	return results, nil
}

func formatPoint(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}

func formatPoints(points []geo.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatPoint(p)
	}
	return strings.Join(parts, "|")
}
