package providers

import (
	"context"

	"github.com/supply-map/backend/internal/domain/geo"
)

// RoadDistance is the travel distance and duration for one
// origin-destination pair. DistanceKm <= 0 is the sentinel for "no route
// found" and must never be read as "0 km away". DurationMinutes is nil
// when the provider returned no duration for the pair.
type RoadDistance struct {
	DistanceKm      float64
	DurationMinutes *float64
}

// HasRoute reports whether the provider found a route for this pair.
func (r RoadDistance) HasRoute() bool {
	return r.DistanceKm > 0
}

// DistanceProvider resolves road distances from one origin to many
// destinations. The returned slice must match the destinations in both
// order and length; a length mismatch is a RESULT_COUNT_MISMATCH
// failure. Implementations chunk destination lists above their batch
// limit internally; a failed chunk fails the whole call, partial results
// are never returned. A per-element "route not found" is not a failure
// and decodes to the zero-distance sentinel.
type DistanceProvider interface {
	// Name identifies the provider in logs and diagnostics
	Name() string

	Resolve(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]RoadDistance, error)
}
