package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/coupons/core"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// Requirement: a cached session reads back with its hash restored.
func TestSessionCache_RoundTrip(t *testing.T) {
	// Arrange
	_, rdb := newTestClient(t)
	cache := NewSessionCache(rdb, time.Minute)
	session := &core.Session{
		ID:        "session-1",
		UserID:    "user-1",
		TokenHash: "hash-1",
		IPAddress: "10.0.0.1",
		ExpiresAt: time.Now().Add(time.Hour).UTC(),
	}

	// Act
	require.NoError(t, cache.Set("hash-1", session))
	got, err := cache.Get("hash-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "session-1", got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, "hash-1", got.TokenHash)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, cache.Delete("hash-1"))
	_, err = cache.Get("hash-1")
	require.ErrorIs(t, err, core.ErrCacheNotFound)
}

// Requirement: an entry never outlives its session.
func TestSessionCache_TTLCappedBySession(t *testing.T) {
	// Arrange
	mr, rdb := newTestClient(t)
	cache := NewSessionCache(rdb, time.Hour)

	// Act
	require.NoError(t, cache.Set("short", &core.Session{ID: "s", ExpiresAt: time.Now().Add(10 * time.Second)}))
	require.NoError(t, cache.Set("expired", &core.Session{ID: "e", ExpiresAt: time.Now().Add(-time.Second)}))

	// Assert
	assert.LessOrEqual(t, mr.TTL(sessionPrefix+"short"), 10*time.Second)
	assert.False(t, mr.Exists(sessionPrefix+"expired"))

	mr.FastForward(11 * time.Second)
	_, err := cache.Get("short")
	require.ErrorIs(t, err, core.ErrCacheNotFound)
}

// Requirement: Clear drops cached sessions and leaves other keys alone.
func TestSessionCache_Clear(t *testing.T) {
	// Arrange
	mr, rdb := newTestClient(t)
	cache := NewSessionCache(rdb, time.Minute)
	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, cache.Set(h, &core.Session{ID: h, ExpiresAt: time.Now().Add(time.Hour)}))
	}
	require.NoError(t, mr.Set("other", "kept"))

	// Act
	err := cache.Clear()

	// Assert
	require.NoError(t, err)
	_, err = cache.Get("a")
	require.ErrorIs(t, err, core.ErrCacheNotFound)
	assert.True(t, mr.Exists("other"))
}

// Requirement: a held lock blocks other holders until released or expired.
func TestLocker(t *testing.T) {
	// Arrange
	mr, rdb := newTestClient(t)
	locker := NewLocker(rdb)
	ctx := context.Background()

	// Act
	unlock, err := locker.Lock(ctx, "payment:1", time.Minute)
	require.NoError(t, err)

	busyCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	_, busyErr := locker.Lock(busyCtx, "payment:1", time.Minute)

	otherUnlock, otherErr := locker.Lock(ctx, "payment:2", time.Minute)

	// Assert
	require.ErrorIs(t, busyErr, core.ErrLockNotHeld)
	require.NoError(t, otherErr)
	require.NoError(t, otherUnlock(ctx))

	require.NoError(t, unlock(ctx))
	again, err := locker.Lock(ctx, "payment:1", time.Second)
	require.NoError(t, err)

	// the holder went away; the lease lapses on its own
	mr.FastForward(2 * time.Second)
	_, err = locker.Lock(ctx, "payment:1", time.Minute)
	require.NoError(t, err)
	require.Error(t, again(ctx), "a lapsed lease cannot release the new holder")
}
