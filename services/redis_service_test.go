package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roominventory/constants"
)

type cachedValue struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestRedisCache_GetSet(t *testing.T) {
	ctx := context.Background()
	_, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb)

	var got cachedValue
	hit, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "k", cachedValue{Name: "a", Price: 12.5}, time.Minute))
	hit, err = cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, cachedValue{Name: "a", Price: 12.5}, got)
}

func TestRedisCache_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb)

	require.NoError(t, cache.Set(ctx, "k", cachedValue{Name: "a"}, time.Minute, "tag"))
	mr.FastForward(2 * time.Minute)

	var got cachedValue
	hit, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("tag"))
}

func TestRedisCache_InvalidateByTag(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb)

	require.NoError(t, cache.Set(ctx, "search:1", []string{"101", "102"}, time.Minute, roomCacheTag("101"), roomCacheTag("102")))
	require.NoError(t, cache.Set(ctx, "search:2", []string{"102"}, time.Minute, roomCacheTag("102")))
	require.NoError(t, cache.Set(ctx, "search:3", []string{"201"}, time.Minute, roomCacheTag("201")))

	require.NoError(t, cache.Invalidate(ctx, roomCacheTag("101")))
	assert.False(t, mr.Exists("search:1"))
	assert.True(t, mr.Exists("search:2"))
	assert.False(t, mr.Exists(roomCacheTag("101")))

	require.NoError(t, cache.Invalidate(ctx, roomCacheTag("102")))
	assert.False(t, mr.Exists("search:2"))
	assert.True(t, mr.Exists("search:3"))

	// tag không tồn tại
	require.NoError(t, cache.Invalidate(ctx, roomCacheTag("999")))
}

func TestRedisCache_SetIfUnchanged(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	cache := NewRedisCache(rdb)
	tag := roomCacheTag("101")

	guard, err := cache.Generations(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{tag: 0}, guard)

	stored, err := cache.SetIfUnchanged(ctx, guard, "search:1", []string{"101"}, time.Minute, tag)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.True(t, mr.Exists("search:1"))

	// invalidate giữa lúc đọc và lúc ghi: lần ghi bị bỏ
	require.NoError(t, cache.Invalidate(ctx, tag))
	stored, err = cache.SetIfUnchanged(ctx, guard, "search:1", []string{"101"}, time.Minute, tag)
	require.NoError(t, err)
	assert.False(t, stored)
	assert.False(t, mr.Exists("search:1"))

	fresh, err := cache.Generations(ctx, tag)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fresh[tag])
	stored, err = cache.SetIfUnchanged(ctx, fresh, "search:1", []string{"101"}, time.Minute, tag)
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	store := NewRedisIdempotencyStore(rdb, "")

	ok, err := store.SetNX(ctx, "key-1", idempotencyProcessing, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists(constants.IdempotencyPrefix+"key-1"))

	ok, err = store.SetNX(ctx, "key-1", "other", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "key-1", "booking-1", time.Hour))
	got, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "booking-1", got)

	require.NoError(t, store.Del(ctx, "key-1"))
	_, err = store.Get(ctx, "key-1")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)

	require.NoError(t, store.Set(ctx, "key-2", "booking-2", time.Hour))
	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "key-2")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
}

func TestNoopStores(t *testing.T) {
	ctx := context.Background()

	var got cachedValue
	hit, err := NoopCache{}.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, NoopCache{}.Set(ctx, "k", got, time.Minute, "t"))
	assert.NoError(t, NoopCache{}.Invalidate(ctx, "t"))
	gens, err := NoopCache{}.Generations(ctx, "t")
	require.NoError(t, err)
	assert.Nil(t, gens)
	stored, err := NoopCache{}.SetIfUnchanged(ctx, map[string]int64{"t": 0}, "k", got, time.Minute, "t")
	require.NoError(t, err)
	assert.False(t, stored)

	ok, err := NoopIdempotencyStore{}.SetNX(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = NoopIdempotencyStore{}.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrIdempotencyKeyNotFound)
}
