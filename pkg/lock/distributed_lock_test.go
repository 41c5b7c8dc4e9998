package lock

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockedClient(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLock_AcquireAndRelease(t *testing.T) {
	client := newLockedClient(t)
	ctx := context.Background()

	l := NewRedisLock(client, "jobs:retention")
	acquired, err := l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, l.IsHeld())

	require.NoError(t, l.Unlock(ctx))
	assert.False(t, l.IsHeld())
}

func TestRedisLock_MutualExclusion(t *testing.T) {
	client := newLockedClient(t)
	ctx := context.Background()

	first := NewRedisLock(client, "jobs:retention")
	second := NewRedisLock(client, "jobs:retention")

	acquired, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, acquired, "second instance must not acquire a held lock")

	require.NoError(t, first.Unlock(ctx))

	acquired, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired, "lock must be acquirable after release")
	require.NoError(t, second.Unlock(ctx))
}

func TestRedisLock_UnlockDoesNotStealForeignLock(t *testing.T) {
	client := newLockedClient(t)
	ctx := context.Background()

	owner := NewRedisLock(client, "jobs:retention")
	intruder := NewRedisLock(client, "jobs:retention")

	acquired, err := owner.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, acquired)

	// The intruder never acquired it; unlocking must leave the key in place
	require.NoError(t, intruder.Unlock(ctx))

	acquired, err = intruder.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestRedisLock_NilClientSingleInstanceMode(t *testing.T) {
	ctx := context.Background()

	l := NewRedisLock(nil, "jobs:retention")
	acquired, err := l.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, l.IsHeld())
	assert.NoError(t, l.Unlock(ctx))
}

func TestRedisLock_ReacquireAfterUnlock(t *testing.T) {
	client := newLockedClient(t)
	ctx := context.Background()

	l := NewRedisLock(client, "jobs:retention")
	for i := 0; i < 3; i++ {
		acquired, err := l.TryLock(ctx)
		require.NoError(t, err)
		require.True(t, acquired)
		require.NoError(t, l.Unlock(ctx))
	}
}
