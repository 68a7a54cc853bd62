package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewRedisStoreWithClient(client, "fundlens")
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestRedisStore_SetGet(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	key, err := store.Set(ctx, "market_data", Params{"ticker": "XPLG11"}, map[string]any{"price": 102.4}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Key("market_data", Params{"ticker": "XPLG11"}), key)

	payload, found, err := store.Get(ctx, "market_data", Params{"ticker": "XPLG11"})
	require.NoError(t, err)
	require.True(t, found)

	var decoded map[string]float64
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, 102.4, decoded["price"])
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, s := newRedisTestStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "market_data", Params{"ticker": "XPLG11"}, "quote", time.Second)
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	_, found, err := store.Get(ctx, "market_data", Params{"ticker": "XPLG11"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_ZeroTTLNeverReadable(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	_, err := store.Set(ctx, "model", Params{"name": "mini"}, "meta", 0)
	require.NoError(t, err)

	_, found, err := store.Get(ctx, "model", Params{"name": "mini"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Overwrite(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()
	params := Params{"ticker": "HGLG11"}

	_, err := store.Set(ctx, "market_data", params, "v1", time.Hour)
	require.NoError(t, err)
	_, err = store.Set(ctx, "market_data", params, "v2", time.Hour)
	require.NoError(t, err)

	payload, found, err := store.Get(ctx, "market_data", params)
	require.NoError(t, err)
	require.True(t, found)

	var v string
	require.NoError(t, json.Unmarshal(payload, &v))
	assert.Equal(t, "v2", v)
}

func TestRedisStore_ClearType(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()

	for _, ticker := range []string{"XPLG11", "HGLG11"} {
		_, err := store.Set(ctx, "market_data", Params{"ticker": ticker}, "quote", time.Hour)
		require.NoError(t, err)
	}
	_, err := store.Set(ctx, "model", Params{"name": "mini"}, "meta", time.Hour)
	require.NoError(t, err)

	count, err := store.ClearType(ctx, "market_data")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalEntries)
	assert.Equal(t, 1, stats.ByType["model"].Active)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := newRedisTestStore(t)
	ctx := context.Background()
	params := Params{"ticker": "XPLG11"}

	_, err := store.Set(ctx, "market_data", params, "quote", time.Hour)
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, "market_data", params)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "market_data", params)
	require.NoError(t, err)
	assert.False(t, deleted)
}
