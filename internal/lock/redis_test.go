package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisKeyed_Exclusive(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)
	guard := NewRedis(client, time.Minute)

	rel, ok, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok2, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok2)

	rel()

	_, ok3, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok3)
}

func TestRedisKeyed_OwnershipRespected(t *testing.T) {
	ctx := context.Background()
	client := newTestRedis(t)

	a := NewRedis(client, time.Minute)
	b := NewRedis(client, time.Minute)

	relA, ok, err := a.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Instance B cannot take the same key while A holds it; B's TryAcquire
	// failure must not produce a release capable of freeing A's guard.
	_, okB, err := b.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, okB)

	relA()

	_, okB, err = b.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, okB)
}
