package lock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyed_Exclusive(t *testing.T) {
	ctx := context.Background()
	guard := NewMemory()

	rel, ok, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok2, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok2)

	// A different key is independent.
	rel2, ok3, err := guard.TryAcquire(ctx, "doc-2")
	require.NoError(t, err)
	require.True(t, ok3)
	rel2()

	rel()

	_, ok4, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok4)
}

func TestMemoryKeyed_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	guard := NewMemory()

	rel, ok, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)

	rel()
	rel() // double release must not free a guard taken by someone else

	rel2, ok, err := guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	rel()
	_, ok, err = guard.TryAcquire(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)
	rel2()
}

func TestMemoryKeyed_ConcurrentRace(t *testing.T) {
	ctx := context.Background()
	guard := NewMemory()

	const goroutines = 32
	var wins int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := guard.TryAcquire(ctx, "doc-race")
			require.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one goroutine may hold the guard")
}
