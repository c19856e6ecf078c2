package culture

import (
	"context"
	"testing"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client, 7*24*time.Hour)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func redisRecord(userID, culture string, fetchedAt time.Time) common.CulturalFactRecord {
	return common.CulturalFactRecord{
		UserID:    userID,
		Culture:   culture,
		Facts:     sampleFacts(culture),
		FetchedAt: fetchedAt.UTC().Truncate(time.Second),
		TTLHours:  48,
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	_, found, err := store.Load(ctx, "u1", "Chinese")
	require.NoError(t, err)
	assert.False(t, found)

	rec := redisRecord("u1", "Chinese", now)
	rec.Stale = true
	require.NoError(t, store.Save(ctx, rec))
	assert.True(t, mr.Exists("culture:facts:u1:Chinese"))

	got, found, err := store.Load(ctx, "u1", "Chinese")
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, got.Stale)
	assert.Equal(t, rec.Facts, got.Facts)
	assert.True(t, rec.FetchedAt.Equal(got.FetchedAt))

	stats := store.Stats(ctx)
	assert.Equal(t, "redis", stats.Backend)
	assert.Equal(t, 1, stats.Entries)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
}

func TestRedisStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, c := range []string{"Chinese", "Italian", "Thai"} {
		require.NoError(t, store.Save(ctx, redisRecord("u1", c, now)))
	}
	require.NoError(t, store.Save(ctx, redisRecord("u2", "Thai", now)))

	n, err := store.Delete(ctx, "u1", []string{"Thai"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.Delete(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found, err := store.Load(ctx, "u2", "Thai")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, store.Stats(ctx).Entries)
}

func TestRedisStoreSweep(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, redisRecord("u1", "Greek", now.Add(-200*time.Hour))))
	require.NoError(t, store.Save(ctx, redisRecord("u1", "French", now)))

	n, err := store.Sweep(ctx, now.Add(-168*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, found, _ := store.Load(ctx, "u1", "Greek")
	assert.False(t, found)
	_, found, _ = store.Load(ctx, "u1", "French")
	assert.True(t, found)
}

func TestCacheWithRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	r := &countingResearcher{}
	clock := newFakeClock()
	cache := NewCache(store, r, Options{TTL: 48 * time.Hour, Now: clock.Now})
	ctx := context.Background()

	first := cache.Get(ctx, "u1", []string{"korean"})
	require.Contains(t, first, "Korean")
	second := cache.Get(ctx, "u1", []string{"Korean"})
	require.Contains(t, second, "Korean")
	assert.Equal(t, 1, r.Calls())
}
