package providers

import (
	"context"
)

// GeocodeResult is a resolved free-text location query
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
}

// GeolocationProvider converts free-text queries to coordinates.
// Best-effort collaborator: a (nil, nil) return means "no match".
type GeolocationProvider interface {
	Geocode(ctx context.Context, query string) (*GeocodeResult, error)
}
