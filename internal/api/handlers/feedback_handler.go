package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/supply-map/backend/internal/domain/providers"
	"github.com/supply-map/backend/pkg/utils"
)

const (
	feedbackRateLimit   = 5
	feedbackRateWindow  = time.Hour
	feedbackDedupWindow = 24 * time.Hour
)

// FeedbackHandler handles stock and price reports.
type FeedbackHandler struct {
	feedback providers.FeedbackProvider
	cache    providers.CacheProvider
	local    *localRateLimiter
	deduper  *localDeduper
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(feedback providers.FeedbackProvider, cache providers.CacheProvider) *FeedbackHandler {
	return &FeedbackHandler{
		feedback: feedback,
		cache:    cache,
		local:    newLocalRateLimiter(),
		deduper:  newLocalDeduper(),
	}
}

type feedbackRequest struct {
	StoreID string   `json:"storeId"`
	Item    string   `json:"item"`
	InStock *bool    `json:"inStock"`
	Price   *float64 `json:"price"`
}

// SubmitFeedback handles POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	payload.StoreID = strings.TrimSpace(payload.StoreID)
	payload.Item = utils.NormalizeItem(payload.Item)

	if payload.StoreID == "" {
		respondWithError(w, http.StatusBadRequest, "storeId is required")
		return
	}
	if payload.Item == "" {
		respondWithError(w, http.StatusBadRequest, "item is required")
		return
	}
	if payload.InStock == nil && payload.Price == nil {
		respondWithError(w, http.StatusBadRequest, "inStock or price is required")
		return
	}
	if payload.Price != nil {
		price := *payload.Price
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			respondWithError(w, http.StatusBadRequest, "price must be a non-negative number")
			return
		}
	}

	key := "feedback:rate:" + clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), key)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "feedback:dup:" + feedbackFingerprint(payload, clientIP(r))
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	if payload.InStock != nil {
		if err := h.feedback.SetStock(r.Context(), payload.StoreID, payload.Item, *payload.InStock); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to submit feedback")
			return
		}
	}
	if payload.Price != nil {
		if err := h.feedback.SetPrice(r.Context(), payload.StoreID, payload.Item, *payload.Price); err != nil {
			respondWithError(w, http.StatusInternalServerError, "failed to submit feedback")
			return
		}
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{
		"status": "received",
	})
}

func (h *FeedbackHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, feedbackRateLimit, feedbackRateWindow)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= feedbackRateLimit {
		return false, feedbackRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(feedbackRateWindow.Seconds()))
	return true, feedbackRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *FeedbackHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key, feedbackDedupWindow)
	}

	exists, err := h.cache.Exists(ctx, key)
	if err == nil && exists {
		return true
	}

	_ = h.cache.Set(ctx, key, []byte("1"), int(feedbackDedupWindow.Seconds()))
	return false
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

func feedbackFingerprint(payload feedbackRequest, ip string) string {
	stock := "none"
	if payload.InStock != nil {
		stock = strconv.FormatBool(*payload.InStock)
	}
	price := "none"
	if payload.Price != nil {
		price = fmt.Sprintf("%.2f", *payload.Price)
	}

	normalized := []string{payload.StoreID, payload.Item, stock, price, ip}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
