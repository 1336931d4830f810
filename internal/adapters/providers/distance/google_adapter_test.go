package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supply-map/backend/internal/domain/geo"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

func makePoints(n int) []geo.Point {
	points := make([]geo.Point, n)
	for i := range points {
		points[i] = geo.Point{Lat: 37.0 + float64(i)*0.01, Lng: -122.0}
	}
	return points
}

func googleOKResponse(elementCount int, baseMeters float64) string {
	elements := make([]string, elementCount)
	for i := range elements {
		meters := baseMeters + float64(i)*1000
		elements[i] = fmt.Sprintf(
			`{"status":"OK","distance":{"value":%f},"duration":{"value":%f}}`,
			meters, meters/10)
	}
	return `{"status":"OK","rows":[{"elements":[` + strings.Join(elements, ",") + `]}]}`
}

func TestGoogleResolve_ChunksLargeDestinationSets(t *testing.T) {
	var callSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dests := strings.Split(r.URL.Query().Get("destinations"), "|")
		callSizes = append(callSizes, len(dests))
		_, _ = w.Write([]byte(googleOKResponse(len(dests), 1000)))
	}))
	defer server.Close()

	adapter := NewGoogleAdapterWithOptions(StaticKey("test-key"), server.URL, server.Client())

	results, err := adapter.Resolve(context.Background(), geo.Point{Lat: 37, Lng: -122}, makePoints(30))
	require.NoError(t, err)

	assert.Equal(t, []int{25, 5}, callSizes)
	require.Len(t, results, 30)

	// concatenated in original destination order
	assert.Equal(t, 1.0, results[0].DistanceKm)
	assert.Equal(t, 25.0, results[24].DistanceKm)
	assert.Equal(t, 1.0, results[25].DistanceKm)
	assert.Equal(t, 5.0, results[29].DistanceKm)
}

func TestGoogleResolve_MissingCredentialSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := NewGoogleAdapterWithOptions(StaticKey(""), server.URL, server.Client())

	_, err := adapter.Resolve(context.Background(), geo.Point{}, makePoints(3))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
	assert.False(t, called)
}

func TestGoogleResolve_NoRouteElementDecodesToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[
			{"status":"OK","distance":{"value":18000},"duration":{"value":1500}},
			{"status":"ZERO_RESULTS"}
		]}]}`))
	}))
	defer server.Close()

	adapter := NewGoogleAdapterWithOptions(StaticKey("k"), server.URL, server.Client())

	results, err := adapter.Resolve(context.Background(), geo.Point{}, makePoints(2))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 18.0, results[0].DistanceKm)
	require.NotNil(t, results[0].DurationMinutes)
	assert.Equal(t, 25.0, *results[0].DurationMinutes)
	assert.True(t, results[0].HasRoute())

	assert.False(t, results[1].HasRoute())
	assert.Nil(t, results[1].DurationMinutes)
}

func TestGoogleResolve_RejectedRequestIsSourceUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":        "REQUEST_DENIED",
			"error_message": "key is invalid",
			"rows":          []any{},
		})
	}))
	defer server.Close()

	adapter := NewGoogleAdapterWithOptions(StaticKey("k"), server.URL, server.Client())

	_, err := adapter.Resolve(context.Background(), geo.Point{}, makePoints(1))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSourceUnavailable))
	assert.Contains(t, err.Error(), "REQUEST_DENIED")
}

func TestGoogleResolve_ElementCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(googleOKResponse(1, 1000)))
	}))
	defer server.Close()

	adapter := NewGoogleAdapterWithOptions(StaticKey("k"), server.URL, server.Client())

	_, err := adapter.Resolve(context.Background(), geo.Point{}, makePoints(3))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeResultCountMismatch))
}

func TestGoogleResolve_EmptyDestinations(t *testing.T) {
	adapter := NewGoogleAdapterWithOptions(StaticKey(""), "http://unused", nil)

	results, err := adapter.Resolve(context.Background(), geo.Point{}, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
