package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock_BackendUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	unlock, ok, err := NewLocker(client).TryLock(context.Background(), "escrow:auto-release-sweep", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, unlock)
	assert.Contains(t, err.Error(), "acquire lock escrow:auto-release-sweep")
}

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client), mr
}

func TestTryLock_AcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, unlock)
	assert.True(t, mr.Exists("lock:sweep"))
	assert.Equal(t, time.Minute, mr.TTL("lock:sweep"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("lock:sweep"))

	// Free again once released.
	unlock, ok, err = locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, unlock(ctx))
}

func TestTryLock_ContendedReturnsNotOK(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	other, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, other)

	require.NoError(t, unlock(ctx))
}

func TestTryLock_UnlockAfterExpiryDoesNotDeleteNewHolder(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	staleUnlock, ok, err := locker.TryLock(ctx, "sweep", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	assert.False(t, mr.Exists("lock:sweep"))

	freshUnlock, ok, err := locker.TryLock(ctx, "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	holder, err := mr.Get("lock:sweep")
	require.NoError(t, err)

	assert.ErrorIs(t, staleUnlock(ctx), ErrLockLost)

	stillHeld, err := mr.Get("lock:sweep")
	require.NoError(t, err)
	assert.Equal(t, holder, stillHeld)

	require.NoError(t, freshUnlock(ctx))
	assert.ErrorIs(t, freshUnlock(ctx), ErrLockLost)
}
