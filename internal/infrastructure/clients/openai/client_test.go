package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supply-map/backend/internal/domain/entities"
	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/config"
)

func responseWithText(text string) string {
	envelope := map[string]any{
		"output": []map[string]any{
			{"content": []map[string]any{
				{"type": "output_text", "text": text},
			}},
		},
	}
	raw, _ := json.Marshal(envelope)
	return string(raw)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClientWithOptions(&config.OpenAIConfig{
		APIKey:         "test-key",
		Model:          "gpt-4o-mini",
		RateLimitRPM:   6000,
		RateLimitBurst: 10,
	}, server.URL, server.Client())
	require.NoError(t, err)
	return client
}

func rankedStore(id, name string, km float64) entities.RankedStore {
	return entities.RankedStore{
		Store:      entities.Store{ID: id, Name: name},
		DistanceKm: km,
	}
}

func TestRankStores_ParsesOrderingAndReasons(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(responseWithText(`{"orderedIds":["b","a"],"reasons":{"b":"Closest with stock"}}`)))
	})

	stores := []entities.RankedStore{rankedStore("a", "Corner Shop", 1.2), rankedStore("b", "Mega Mart", 2.4)}
	signals := providers.StoreSignals{InStock: map[string]bool{"b": true}}

	outcome, err := client.RankStores(context.Background(), "batteries", stores, signals)
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, []string{"b", "a"}, outcome.OrderedIDs)
	assert.Equal(t, "Closest with stock", outcome.Reasons["b"])
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestRankStores_EmptyStoreListSkipsCall(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	outcome, err := client.RankStores(context.Background(), "milk", nil, providers.StoreSignals{})
	require.NoError(t, err)
	assert.Nil(t, outcome)
	assert.False(t, called)
}

func TestRankStores_MarkdownFencedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responseWithText("```json\n{\"orderedIds\":[\"a\"]}\n```")))
	})

	outcome, err := client.RankStores(context.Background(), "milk",
		[]entities.RankedStore{rankedStore("a", "Corner Shop", 1.2)}, providers.StoreSignals{})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, []string{"a"}, outcome.OrderedIDs)
}

func TestSummarizeBestOption_ReturnsText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responseWithText("Mega Mart is close and usually stocks batteries.")))
	})

	summary, err := client.SummarizeBestOption(context.Background(), "batteries",
		rankedStore("b", "Mega Mart", 2.4), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mega Mart is close and usually stocks batteries.", summary)
}

func TestSuggestAlternatives_CapsAtThree(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responseWithText(`{"alternatives":["a","b","c","d"]}`)))
	})

	alts, err := client.SuggestAlternatives(context.Background(), "AAA batteries")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, alts)
}

func TestComplete_ServerErrorPropagates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.SuggestAlternatives(context.Background(), "milk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.OpenAIConfig{})
	assert.Error(t, err)
}
