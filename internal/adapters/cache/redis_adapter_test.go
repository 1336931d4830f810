package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/supply-map/backend/internal/infrastructure/clients/redis"
	"github.com/supply-map/backend/pkg/config"
)

func newTestRedisAdapter(t *testing.T) *RedisAdapter {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisclient.NewClient(&config.RedisConfig{
		Host: mr.Host(),
		Port: mustPort(t, mr.Port()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisAdapter(client).(*RedisAdapter)
}

func TestRedisAdapter_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	adapter := newTestRedisAdapter(t)

	require.NoError(t, adapter.Set(ctx, "feedback:price:node/1:milk", []byte("3.50"), 60))

	got, err := adapter.Get(ctx, "feedback:price:node/1:milk")
	require.NoError(t, err)
	assert.Equal(t, []byte("3.50"), got)

	exists, err := adapter.Exists(ctx, "feedback:price:node/1:milk")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, adapter.Delete(ctx, "feedback:price:node/1:milk"))

	_, err = adapter.Get(ctx, "feedback:price:node/1:milk")
	assert.Error(t, err)
}

func TestRedisAdapter_GetMissingKey(t *testing.T) {
	ctx := context.Background()
	adapter := newTestRedisAdapter(t)

	_, err := adapter.Get(ctx, "nope")
	assert.ErrorContains(t, err, "key not found")
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	port, err := strconv.Atoi(s)
	require.NoError(t, err)
	return port
}
