package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
)

// ResolvedDistances is the outcome of one multi-source resolution pass.
// Values matches the destination list in order and length when Source is
// primary or secondary, and is empty when Source is none. ProviderError
// records the recovered failure text, if any, for diagnostics.
type ResolvedDistances struct {
	Values        []providers.RoadDistance
	Source        entities.DistanceSource
	ProviderError string
}

// DistanceResolver resolves road distances against a metered primary
// provider with a free secondary as both gap patcher and full fallback.
type DistanceResolver struct {
	primary   providers.DistanceProvider
	secondary providers.DistanceProvider
}

// NewDistanceResolver creates a new distance resolver
func NewDistanceResolver(primary, secondary providers.DistanceProvider) *DistanceResolver {
	return &DistanceResolver{primary: primary, secondary: secondary}
}

// Resolve runs the primary provider and, on per-pair gaps, patches the
// missing entries from the secondary. When the primary fails outright
// (including a missing credential) the secondary becomes the sole
// source. When both fail the result is empty with Source none; callers
// must then return zero results rather than fall back to straight-line
// distances.
func (r *DistanceResolver) Resolve(ctx context.Context, origin geo.Point, destinations []geo.Point) ResolvedDistances {
	if len(destinations) == 0 {
		return ResolvedDistances{Values: []providers.RoadDistance{}, Source: entities.DistanceSourceNone}
	}

	primaryValues, primaryErr := r.primary.Resolve(ctx, origin, destinations)
	if primaryErr == nil {
		return ResolvedDistances{
			Values: r.patchGaps(ctx, origin, destinations, primaryValues),
			Source: entities.DistanceSourcePrimary,
		}
	}

	log.Warn().
		Str("provider", r.primary.Name()).
		Err(primaryErr).
		Msg("primary distance provider failed, falling back")

	secondaryValues, secondaryErr := r.secondary.Resolve(ctx, origin, destinations)
	if secondaryErr == nil {
		return ResolvedDistances{
			Values:        secondaryValues,
			Source:        entities.DistanceSourceSecondary,
			ProviderError: primaryErr.Error(),
		}
	}

	log.Error().
		Str("provider", r.secondary.Name()).
		Err(secondaryErr).
		Msg("secondary distance provider failed, no distance source left")

	return ResolvedDistances{
		Values:        []providers.RoadDistance{},
		Source:        entities.DistanceSourceNone,
		ProviderError: primaryErr.Error() + "; " + secondaryErr.Error(),
	}
}

// patchGaps fills primary no-route entries from the secondary provider.
// The secondary is queried with the full destination set so its results
// line up by index. A patch is applied only where the primary had a gap
// and the secondary found a route; a secondary failure leaves the
// primary values untouched.
func (r *DistanceResolver) patchGaps(ctx context.Context, origin geo.Point, destinations []geo.Point, values []providers.RoadDistance) []providers.RoadDistance {
	hasGaps := false
	for _, v := range values {
		if !v.HasRoute() {
			hasGaps = true
			break
		}
	}
	if !hasGaps {
		return values
	}

	patches, err := r.secondary.Resolve(ctx, origin, destinations)
	if err != nil {
		log.Warn().
			Str("provider", r.secondary.Name()).
			Err(err).
			Msg("gap patching failed, keeping primary results as-is")
		return values
	}
	if len(patches) != len(values) {
		log.Warn().
			Str("provider", r.secondary.Name()).
			Int("expected", len(values)).
			Int("got", len(patches)).
			Msg("gap patch count mismatch, keeping primary results as-is")
		return values
	}

	for i := range values {
		if !values[i].HasRoute() && patches[i].HasRoute() {
			values[i] = patches[i]
		}
	}
	return values
}
