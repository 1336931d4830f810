// Package auth holds the OAuth client-credentials token cache used by
// the metered distance provider.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/supply-map/backend/pkg/errors"
	"github.com/supply-map/backend/pkg/retry"
)

// Tokens are refreshed this long before their reported expiry so an
// in-flight request never carries a token that dies mid-call.
const refreshSafetyMargin = 60 * time.Second

const defaultFetchTimeout = 10 * time.Second

// TokenCache fetches and caches an OAuth access token obtained via the
// client_credentials grant. Safe for concurrent use. Implements the
// distance adapters' CredentialSource.
type TokenCache struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	clock        clockwork.Clock

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenCache creates a new token cache
func NewTokenCache(tokenURL, clientID, clientSecret string) *TokenCache {
	return NewTokenCacheWithOptions(tokenURL, clientID, clientSecret,
		&http.Client{Timeout: defaultFetchTimeout}, clockwork.NewRealClock())
}

// NewTokenCacheWithOptions allows overriding the HTTP client and clock
// (used for tests).
func NewTokenCacheWithOptions(tokenURL, clientID, clientSecret string, httpClient *http.Client, clock clockwork.Clock) *TokenCache {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenCache{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		clock:        clock,
	}
}

// Credential returns a valid access token, fetching a fresh one when
// the cached token is absent or inside the refresh safety margin.
func (t *TokenCache) Credential(ctx context.Context) (string, error) {
	if t.tokenURL == "" || t.clientID == "" || t.clientSecret == "" {
		return "", apperrors.NewMissingCredentialError("oauth token endpoint is not configured")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && t.clock.Now().Add(refreshSafetyMargin).Before(t.expiresAt) {
		return t.token, nil
	}

	var fetched tokenResponse
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		var fetchErr error
		fetched, fetchErr = t.fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return "", apperrors.NewMissingCredentialError("failed to obtain access token: " + err.Error())
	}

	t.token = fetched.AccessToken
	t.expiresAt = t.clock.Now().Add(time.Duration(fetched.ExpiresIn) * time.Second)
	return t.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (t *TokenCache) fetch(ctx context.Context) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.clientID)
	form.Set("client_secret", t.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tokenResponse{}, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return tokenResponse{}, fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" || payload.ExpiresIn <= 0 {
		return tokenResponse{}, fmt.Errorf("token endpoint returned an unusable token")
	}
	return payload, nil
}
