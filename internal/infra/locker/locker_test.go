package locker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client)

	release, ok, err := l.TryLock(ctx, "expire-holds", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, "expire-holds", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second runner must be rejected")

	_, ok, err = l.TryLock(ctx, "send-reminders", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "different sweeps do not block each other")

	release(ctx)
	_, ok, err = l.TryLock(ctx, "expire-holds", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLocker(client)

	staleRelease, ok, err := l.TryLock(ctx, "resync-calendar", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = l.TryLock(ctx, "resync-calendar", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	staleRelease(ctx)
	assert.True(t, mr.Exists(keyPrefix+"resync-calendar"))
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	release, ok, err := l.TryLock(ctx, "all", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx, "all", time.Minute)
	assert.False(t, ok)

	release(ctx)
	_, ok, _ = l.TryLock(ctx, "all", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = l.TryLock(ctx, "all", time.Minute)
	assert.True(t, ok, "expired lock is taken over")
}
