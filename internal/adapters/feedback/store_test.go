package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supply-map/backend/internal/adapters/cache"
)

func TestStore_StockRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryAdapter())

	require.NoError(t, store.SetStock(ctx, "node/1", "AA Batteries", true))
	require.NoError(t, store.SetStock(ctx, "node/2", "aa batteries", false))

	stock, err := store.StockForStores(ctx, "aa  batteries", []string{"node/1", "node/2", "node/3"})
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"node/1": true, "node/2": false}, stock)
}

func TestStore_PriceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryAdapter())

	require.NoError(t, store.SetPrice(ctx, "node/1", "milk", 3.5))

	prices, err := store.PricesForStores(ctx, "Milk", []string{"node/1", "node/2"})
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"node/1": 3.5}, prices)
}

func TestStore_RejectsInvalidPrice(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryAdapter())

	assert.Error(t, store.SetPrice(ctx, "node/1", "milk", -1))
}

func TestStore_ItemsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewStore(cache.NewMemoryAdapter())

	require.NoError(t, store.SetPrice(ctx, "node/1", "milk", 3.5))

	prices, err := store.PricesForStores(ctx, "bread", []string{"node/1"})
	require.NoError(t, err)
	assert.Empty(t, prices)
}
