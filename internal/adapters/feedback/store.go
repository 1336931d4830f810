package feedback

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/supply-map/backend/internal/domain/providers"
	apperrors "github.com/supply-map/backend/pkg/errors"
	"github.com/supply-map/backend/pkg/utils"
)

// Reports age out after 30 days; stale stock claims are worse than none.
const entryTTLSeconds = 60 * 60 * 24 * 30

// Store persists crowd-sourced stock and price reports in a
// CacheProvider, keyed by (store ID, normalized item name).
type Store struct {
	cache providers.CacheProvider
}

// NewStore creates a feedback store backed by the given cache
func NewStore(cache providers.CacheProvider) providers.FeedbackProvider {
	return &Store{cache: cache}
}

// SetStock records an in-stock / out-of-stock report for an item at a store
func (s *Store) SetStock(ctx context.Context, storeID, item string, inStock bool) error {
	value := []byte("0")
	if inStock {
		value = []byte("1")
	}
	return s.cache.Set(ctx, stockKey(storeID, item), value, entryTTLSeconds)
}

// SetPrice records a reported price for an item at a store
func (s *Store) SetPrice(ctx context.Context, storeID, item string, price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return apperrors.NewValidationError("price must be a finite non-negative number")
	}
	value := strconv.FormatFloat(price, 'f', -1, 64)
	return s.cache.Set(ctx, priceKey(storeID, item), []byte(value), entryTTLSeconds)
}

// StockForStores returns reported stock for the given stores. Stores
// with no report are absent; cache read errors count as "no report".
func (s *Store) StockForStores(ctx context.Context, item string, storeIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	for _, id := range storeIDs {
		raw, err := s.cache.Get(ctx, stockKey(id, item))
		if err != nil {
			continue
		}
		result[id] = string(raw) == "1"
	}
	return result, nil
}

// PricesForStores returns reported prices for the given stores
func (s *Store) PricesForStores(ctx context.Context, item string, storeIDs []string) (map[string]float64, error) {
	result := make(map[string]float64)
	for _, id := range storeIDs {
		raw, err := s.cache.Get(ctx, priceKey(id, item))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		result[id] = price
	}
	return result, nil
}

func stockKey(storeID, item string) string {
	return fmt.Sprintf("feedback:stock:%s:%s", storeID, utils.NormalizeItem(item))
}

func priceKey(storeID, item string) string {
	return fmt.Sprintf("feedback:price:%s:%s", storeID, utils.NormalizeItem(item))
}
