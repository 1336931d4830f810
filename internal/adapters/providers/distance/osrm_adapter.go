package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

const osrmProviderName = "osrm"

// OSRMAdapter resolves road distances through an OSRM table endpoint
// (the free, unkeyed provider). OSRM wants lng,lat coordinate order and
// returns parallel durations/distances rows where a null cell marks
// "no route".
type OSRMAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRMAdapter creates a new OSRM table adapter
func NewOSRMAdapter(cfg *config.OSRMConfig) providers.DistanceProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return NewOSRMAdapterWithOptions(cfg.BaseURL, &http.Client{Timeout: timeout})
}

// NewOSRMAdapterWithOptions allows overriding the base URL and HTTP
// client (used for tests).
func NewOSRMAdapterWithOptions(baseURL string, httpClient *http.Client) providers.DistanceProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultCallTimeout}
	}
	return &OSRMAdapter{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// Name identifies the provider in logs and diagnostics
func (o *OSRMAdapter) Name() string {
	return osrmProviderName
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
	Distances [][]*float64 `json:"distances"`
}

// Resolve returns road distances from origin to every destination, in
// destination order.
func (o *OSRMAdapter) Resolve(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]providers.RoadDistance, error) {
	if len(destinations) == 0 {
		return []providers.RoadDistance{}, nil
	}

	results := make([]providers.RoadDistance, 0, len(destinations))
	for _, chunk := range chunkPoints(destinations, maxDestinationsPerRequest) {
		chunkResults, err := o.resolveChunk(ctx, origin, chunk)
		if err != nil {
			return nil, err
		}
		results = append(results, chunkResults...)
	}

	if len(results) != len(destinations) {
		return nil, apperrors.NewResultCountMismatchError(
			fmt.Sprintf("osrm returned %d results for %d destinations", len(results), len(destinations)))
	}
	return results, nil
}

func (o *OSRMAdapter) resolveChunk(ctx context.Context, origin geo.Point, chunk []geo.Point) ([]providers.RoadDistance, error) {
	coords := make([]string, 0, 1+len(chunk))
	coords = append(coords, fmt.Sprintf("%f,%f", origin.Lng, origin.Lat))
	for _, p := range chunk {
		coords = append(coords, fmt.Sprintf("%f,%f", p.Lng, p.Lat))
	}

	destIdx := make([]string, len(chunk))
	for i := range chunk {
		destIdx[i] = strconv.Itoa(i + 1)
	}

	params := url.Values{}
	params.Set("sources", "0")
	params.Set("destinations", strings.Join(destIdx, ";"))
	params.Set("annotations", "duration,distance")

	reqURL := o.baseURL + "/" + strings.Join(coords, ";") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build osrm request", err)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(osrmProviderName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("osrm returned status %d", resp.StatusCode), nil)
	}

	var payload osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMalformedResponseError("failed to decode osrm response", err)
	}

	if payload.Code != "Ok" {
		return nil, apperrors.NewSourceUnavailableError("osrm rejected the request: "+payload.Code, nil)
	}
	if len(payload.Durations) != 1 || len(payload.Distances) != 1 {
		return nil, apperrors.NewMalformedResponseError("osrm response missing table rows", nil)
	}

	durations := payload.Durations[0]
	distances := payload.Distances[0]
	if len(durations) != len(chunk) || len(distances) != len(chunk) {
		return nil, apperrors.NewResultCountMismatchError(
			fmt.Sprintf("osrm returned %d/%d cells for %d destinations", len(distances), len(durations), len(chunk)))
	}

	results := make([]providers.RoadDistance, len(chunk))
	for i := range chunk {
		var rd providers.RoadDistance
		if distances[i] != nil {
			rd.DistanceKm = roundMetersToKm(*distances[i])
		}
		if durations[i] != nil {
			rd.DurationMinutes = minutesFromSeconds(*durations[i])
		}
		results[i] = rd
	}
	return results, nil
}
