package providers

import (
	"context"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
)

// POIProvider queries a geospatial POI index for shops and amenities
// within a radius of a point. Implementations must deduplicate by the
// source's native identifier and return candidates sorted ascending by
// straight-line distance. Failures are SOURCE_UNAVAILABLE (network,
// timeout, non-2xx) or MALFORMED_RESPONSE (schema violation); callers
// treat either as "zero candidates", not a fatal search failure.
type POIProvider interface {
	FetchNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]entities.Store, error)
}
