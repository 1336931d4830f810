package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

const defaultTimeout = 20 * time.Second

// OverpassAdapter implements the POIProvider against an Overpass
// interpreter endpoint. It queries shops plus a few key amenities,
// deduplicates by the source's type/id pair and returns candidates
// sorted ascending by straight-line distance.
type OverpassAdapter struct {
	baseURL    string
	httpClient *http.Client
}

// NewOverpassAdapter creates a new Overpass POI adapter
func NewOverpassAdapter(cfg *config.OverpassConfig) providers.POIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return NewOverpassAdapterWithOptions(cfg.BaseURL, &http.Client{Timeout: timeout})
}

// NewOverpassAdapterWithOptions allows overriding the base URL and HTTP
// client (used for tests).
func NewOverpassAdapterWithOptions(baseURL string, httpClient *http.Client) providers.POIProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &OverpassAdapter{baseURL: baseURL, httpClient: httpClient}
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// FetchNearby queries shops and key amenities around center
func (a *OverpassAdapter) FetchNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]entities.Store, error) {
	query := buildQuery(center, radiusMeters)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, strings.NewReader(query))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build overpass request", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError("overpass request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewSourceUnavailableError(fmt.Sprintf("overpass returned status %d", resp.StatusCode), nil)
	}

	var payload overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewMalformedResponseError("failed to decode overpass response", err)
	}

	stores := make([]entities.Store, 0, len(payload.Elements))
	seen := make(map[string]struct{}, len(payload.Elements))

	for _, el := range payload.Elements {
		location, ok := elementLocation(el)
		if !ok {
			continue
		}

		id := fmt.Sprintf("%s/%d", el.Type, el.ID)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		stores = append(stores, entities.Store{
			ID:             id,
			Name:           displayName(el),
			Location:       location,
			Address:        buildAddress(el.Tags),
			StraightLineKm: geo.RoundKm(geo.HaversineKm(center, location)),
			Tags:           el.Tags,
		})
	}

	sort.SliceStable(stores, func(i, j int) bool {
		return stores[i].StraightLineKm < stores[j].StraightLineKm
	})

	return stores, nil
}

func buildQuery(center geo.Point, radiusMeters float64) string {
	return fmt.Sprintf(`[out:json][timeout:12];
(
  nwr["shop"](around:%.0f,%f,%f);
  nwr["amenity"~"marketplace|pharmacy|fuel"](around:%.0f,%f,%f);
);
out center;`, radiusMeters, center.Lat, center.Lng, radiusMeters, center.Lat, center.Lng)
}

// Ways and relations carry a computed center instead of lat/lon.
func elementLocation(el overpassElement) (geo.Point, bool) {
	if el.Lat != nil && el.Lon != nil {
		return geo.Point{Lat: *el.Lat, Lng: *el.Lon}, true
	}
	if el.Center != nil {
		return geo.Point{Lat: el.Center.Lat, Lng: el.Center.Lon}, true
	}
	return geo.Point{}, false
}

func displayName(el overpassElement) string {
	if name := el.Tags["name"]; name != "" {
		return name
	}
	if brand := el.Tags["brand"]; brand != "" {
		return brand
	}
	return "Unnamed store"
}

func buildAddress(tags map[string]string) string {
	if tags == nil {
		return ""
	}

	city := tags["addr:city"]
	if city == "" {
		city = tags["addr:town"]
	}
	if city == "" {
		city = tags["addr:village"]
	}

	parts := make([]string, 0, 5)
	for _, part := range []string{tags["addr:street"], tags["addr:housenumber"], city, tags["addr:state"], tags["addr:postcode"]} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
