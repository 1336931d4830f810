package providers

import (
	"context"
)

// FeedbackProvider stores crowd-sourced stock and price reports keyed by
// (store ID, normalized item name). Read-only from the search pipeline's
// perspective; writes come from the feedback endpoint.
type FeedbackProvider interface {
	SetStock(ctx context.Context, storeID, item string, inStock bool) error

	SetPrice(ctx context.Context, storeID, item string, price float64) error

	// StockForStores returns reported stock for the given stores; stores
	// with no report are absent from the map
	StockForStores(ctx context.Context, item string, storeIDs []string) (map[string]bool, error)

	// PricesForStores returns reported prices for the given stores
	PricesForStores(ctx context.Context, item string, storeIDs []string) (map[string]float64, error)
}
