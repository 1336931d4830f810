package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/geo"
	"github.com/supply-map/backend/internal/domain/providers"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

type stubDistanceProvider struct {
	name    string
	results []providers.RoadDistance
	err     error
	calls   int
}

func (s *stubDistanceProvider) Name() string { return s.name }

func (s *stubDistanceProvider) Resolve(ctx context.Context, origin geo.Point, destinations []geo.Point) ([]providers.RoadDistance, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func minutes(m float64) *float64 { return &m }

func roadKm(kms ...float64) []providers.RoadDistance {
	out := make([]providers.RoadDistance, len(kms))
	for i, km := range kms {
		out[i] = providers.RoadDistance{DistanceKm: km}
	}
	return out
}

func someDestinations(n int) []geo.Point {
	points := make([]geo.Point, n)
	for i := range points {
		points[i] = geo.Point{Lat: 37.0 + float64(i)*0.01, Lng: -122.0}
	}
	return points
}

func TestResolve_PrimaryCleanPassSkipsSecondary(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", results: roadKm(1.2, 3.4, 5.6)}
	secondary := &stubDistanceProvider{name: "secondary", results: roadKm(9, 9, 9)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(3))

	assert.Equal(t, entities.DistanceSourcePrimary, resolved.Source)
	assert.Equal(t, roadKm(1.2, 3.4, 5.6), resolved.Values)
	assert.Empty(t, resolved.ProviderError)
	assert.Equal(t, 0, secondary.calls)
}

func TestResolve_PatchesOnlyGappedIndexes(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", results: roadKm(1, 2, 0, 4, 0)}
	secondary := &stubDistanceProvider{name: "secondary", results: roadKm(10, 20, 30, 40, 0)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(5))

	assert.Equal(t, entities.DistanceSourcePrimary, resolved.Source)
	// only index 2 is both gapped and patchable; index 4 stays a gap
	assert.Equal(t, roadKm(1, 2, 30, 4, 0), resolved.Values)
	assert.Equal(t, 1, secondary.calls)
}

func TestResolve_PatchFailureKeepsPrimaryValues(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", results: roadKm(1, 0, 3)}
	secondary := &stubDistanceProvider{name: "secondary", err: apperrors.NewSourceUnavailableError("down", nil)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(3))

	assert.Equal(t, entities.DistanceSourcePrimary, resolved.Source)
	assert.Equal(t, roadKm(1, 0, 3), resolved.Values)
	assert.Empty(t, resolved.ProviderError)
}

func TestResolve_PrimaryFailureFallsToSecondary(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", err: apperrors.NewTimeoutError("slow", nil)}
	secondary := &stubDistanceProvider{name: "secondary", results: roadKm(7, 8)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(2))

	assert.Equal(t, entities.DistanceSourceSecondary, resolved.Source)
	assert.Equal(t, roadKm(7, 8), resolved.Values)
	assert.Contains(t, resolved.ProviderError, "slow")
}

func TestResolve_MissingCredentialFallsToSecondary(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", err: apperrors.NewMissingCredentialError("no key")}
	secondary := &stubDistanceProvider{name: "secondary", results: roadKm(2.5)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(1))

	assert.Equal(t, entities.DistanceSourceSecondary, resolved.Source)
	assert.Equal(t, roadKm(2.5), resolved.Values)
}

func TestResolve_BothFailYieldsNone(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", err: apperrors.NewMissingCredentialError("no key")}
	secondary := &stubDistanceProvider{name: "secondary", err: apperrors.NewTimeoutError("slow", nil)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(4))

	assert.Equal(t, entities.DistanceSourceNone, resolved.Source)
	assert.Empty(t, resolved.Values)
	assert.Contains(t, resolved.ProviderError, "no key")
	assert.Contains(t, resolved.ProviderError, "slow")
}

func TestResolve_EmptyDestinations(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary"}
	secondary := &stubDistanceProvider{name: "secondary"}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, nil)

	assert.Equal(t, entities.DistanceSourceNone, resolved.Source)
	assert.Empty(t, resolved.Values)
	assert.Equal(t, 0, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestResolve_PatchCountMismatchIgnored(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", results: roadKm(0, 2)}
	secondary := &stubDistanceProvider{name: "secondary", results: roadKm(5)}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(2))

	assert.Equal(t, entities.DistanceSourcePrimary, resolved.Source)
	assert.Equal(t, roadKm(0, 2), resolved.Values)
}

func TestRoadDistance_DurationCarriedThroughPatch(t *testing.T) {
	primary := &stubDistanceProvider{name: "primary", results: []providers.RoadDistance{
		{DistanceKm: 0, DurationMinutes: nil},
	}}
	secondary := &stubDistanceProvider{name: "secondary", results: []providers.RoadDistance{
		{DistanceKm: 4.5, DurationMinutes: minutes(9)},
	}}
	resolver := NewDistanceResolver(primary, secondary)

	resolved := resolver.Resolve(context.Background(), geo.Point{}, someDestinations(1))

	require.Len(t, resolved.Values, 1)
	assert.Equal(t, 4.5, resolved.Values[0].DistanceKm)
	require.NotNil(t, resolved.Values[0].DurationMinutes)
	assert.Equal(t, 9.0, *resolved.Values[0].DurationMinutes)
}
