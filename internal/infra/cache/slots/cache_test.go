package slots

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
	"github.com/m04kA/SMC-SalonScheduler/pkg/types"
)

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{}) {}

var (
	monday  = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	sample  = []types.TimeString{"10:00", "10:30", "11:00"}
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisCache(client, time.Minute, nopLogger{})
}

func TestKey(t *testing.T) {
	assert.Equal(t, "slots:2026-03-02:any:60:", Key(monday, nil, 60, nil))
	assert.Equal(t, "slots:2026-03-02:7:90:1,3,5", Key(monday, ptr.Ptr(int64(7)), 90, []int64{5, 1, 3}))
}

func TestRedisCache_SetGet(t *testing.T) {
	ctx := context.Background()
	_, cache := setupRedis(t)

	key := Key(monday, nil, 60, nil)
	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)

	cache.Set(ctx, key, sample)
	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, sample, got)
}

func TestRedisCache_EmptyListIsCached(t *testing.T) {
	ctx := context.Background()
	_, cache := setupRedis(t)

	key := Key(monday, nil, 60, nil)
	cache.Set(ctx, key, nil)

	got, ok := cache.Get(ctx, key)
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestRedisCache_TTL(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupRedis(t)

	key := Key(monday, nil, 60, nil)
	cache.Set(ctx, key, sample)
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, key)
	assert.False(t, ok)
}

func TestRedisCache_InvalidateDate(t *testing.T) {
	ctx := context.Background()
	mr, cache := setupRedis(t)

	require.NoError(t, mr.Set("unrelated", "keep"))
	cache.Set(ctx, Key(monday, nil, 60, nil), sample)
	cache.Set(ctx, Key(monday, ptr.Ptr(int64(1)), 30, nil), sample)
	cache.Set(ctx, Key(tuesday, nil, 60, nil), sample)

	cache.InvalidateDate(ctx, monday)

	_, ok := cache.Get(ctx, Key(monday, nil, 60, nil))
	assert.False(t, ok)
	_, ok = cache.Get(ctx, Key(monday, ptr.Ptr(int64(1)), 30, nil))
	assert.False(t, ok)
	_, ok = cache.Get(ctx, Key(tuesday, nil, 60, nil))
	assert.True(t, ok)

	cache.Clear(ctx)
	_, ok = cache.Get(ctx, Key(tuesday, nil, 60, nil))
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"))
}

func TestRedisCache_UnavailableIsMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewRedisCache(client, time.Minute, nopLogger{})

	cache.Set(ctx, Key(monday, nil, 60, nil), sample)
	_, ok := cache.Get(ctx, Key(monday, nil, 60, nil))
	assert.False(t, ok)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(time.Minute)
	now := monday
	cache.now = func() time.Time { return now }

	cache.Set(ctx, Key(monday, nil, 60, nil), sample)
	cache.Set(ctx, Key(tuesday, nil, 60, nil), sample)

	got, ok := cache.Get(ctx, Key(monday, nil, 60, nil))
	require.True(t, ok)
	assert.Equal(t, sample, got)

	got[0] = "23:00"
	again, _ := cache.Get(ctx, Key(monday, nil, 60, nil))
	assert.Equal(t, types.TimeString("10:00"), again[0], "cached list must not be shared")

	cache.InvalidateDate(ctx, monday)
	_, ok = cache.Get(ctx, Key(monday, nil, 60, nil))
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get(ctx, Key(tuesday, nil, 60, nil))
	assert.False(t, ok)
}
