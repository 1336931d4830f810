package poi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supply-map/backend/internal/domain/geo"
	apperrors "github.com/supply-map/backend/pkg/errors"
)

const overpassFixture = `{
	"elements": [
		{"type": "node", "id": 2, "lat": 37.80, "lon": -122.27, "tags": {"shop": "supermarket", "name": "Far Mart"}},
		{"type": "node", "id": 1, "lat": 37.776, "lon": -122.42, "tags": {"shop": "convenience", "brand": "QuickStop", "addr:street": "Mission St", "addr:housenumber": "100", "addr:city": "San Francisco"}},
		{"type": "node", "id": 1, "lat": 37.776, "lon": -122.42, "tags": {"shop": "convenience"}},
		{"type": "way", "id": 7, "center": {"lat": 37.78, "lon": -122.41}, "tags": {"amenity": "pharmacy"}},
		{"type": "node", "id": 9, "tags": {"shop": "bakery"}}
	]
}`

func TestFetchNearby_ParsesDedupsAndSorts(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(overpassFixture))
	}))
	defer server.Close()

	adapter := NewOverpassAdapterWithOptions(server.URL, server.Client())
	center := geo.Point{Lat: 37.7749, Lng: -122.4194}

	stores, err := adapter.FetchNearby(context.Background(), center, 5000)
	require.NoError(t, err)

	// node/9 has no coordinates, node/1 appears twice
	require.Len(t, stores, 3)

	assert.Equal(t, "node/1", stores[0].ID)
	assert.Equal(t, "QuickStop", stores[0].Name)
	assert.Equal(t, "Mission St, 100, San Francisco", stores[0].Address)

	assert.Equal(t, "way/7", stores[1].ID)
	assert.Equal(t, "Unnamed store", stores[1].Name)

	assert.Equal(t, "Far Mart", stores[2].Name)

	// sorted ascending by straight-line distance
	assert.LessOrEqual(t, stores[0].StraightLineKm, stores[1].StraightLineKm)
	assert.LessOrEqual(t, stores[1].StraightLineKm, stores[2].StraightLineKm)

	assert.Contains(t, gotBody, `nwr["shop"](around:5000`)
	assert.Contains(t, gotBody, `marketplace|pharmacy|fuel`)
}

func TestFetchNearby_SourceUnavailableOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	adapter := NewOverpassAdapterWithOptions(server.URL, server.Client())

	_, err := adapter.FetchNearby(context.Background(), geo.Point{}, 5000)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSourceUnavailable))
}

func TestFetchNearby_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	adapter := NewOverpassAdapterWithOptions(server.URL, server.Client())

	_, err := adapter.FetchNearby(context.Background(), geo.Point{}, 5000)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMalformedResponse))
}
