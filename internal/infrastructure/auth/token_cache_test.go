package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/supply-map/backend/pkg/errors"
)

func newTokenServer(t *testing.T, fetches *int, token string, expiresIn int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))

		*fetches++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"` + token + `","expires_in":` + strconv.FormatInt(expiresIn, 10) + `}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCredential_CachesUntilSafetyMargin(t *testing.T) {
	fetches := 0
	server := newTokenServer(t, &fetches, "tok-1", 3600)
	clock := clockwork.NewFakeClock()

	cache := NewTokenCacheWithOptions(server.URL, "client-1", "secret", server.Client(), clock)

	tok, err := cache.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, fetches)

	// still comfortably inside the lifetime
	clock.Advance(30 * time.Minute)
	tok, err = cache.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, fetches)

	// inside the 60s safety margin now
	clock.Advance(29*time.Minute + 30*time.Second)
	_, err = cache.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}

func TestCredential_MissingConfiguration(t *testing.T) {
	cache := NewTokenCacheWithOptions("", "", "", nil, clockwork.NewFakeClock())

	_, err := cache.Credential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
}

func TestCredential_EndpointFailureIsMissingCredential(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cache := NewTokenCacheWithOptions(server.URL, "client-1", "secret", server.Client(), clockwork.NewFakeClock())

	_, err := cache.Credential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
}

func TestCredential_RejectsUnusableToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"","expires_in":0}`))
	}))
	defer server.Close()

	cache := NewTokenCacheWithOptions(server.URL, "client-1", "secret", server.Client(), clockwork.NewFakeClock())

	_, err := cache.Credential(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
}
