package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperbase/internal/model"
)

func TestLocalStorage_PutGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	payload := []byte("hello blob")
	info, err := store.Put(ctx, "documents/a.png", bytes.NewReader(payload), PutOptions{
		Size:        int64(len(payload)),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "documents/a.png", info.Key)
	assert.Equal(t, int64(len(payload)), info.Size)

	rc, got, err := store.Get(ctx, "documents/a.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/png", got.ContentType)
}

func TestLocalStorage_GetMissing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Get(ctx, "documents/nope.png")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "documents/b.txt", strings.NewReader("x"), PutOptions{Size: 1})
	require.NoError(t, err)

	ok, err := store.Exists(ctx, "documents/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "documents/b.txt"))

	ok, err = store.Exists(ctx, "documents/b.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	// Second delete of the same key is a no-op, not an error.
	require.NoError(t, store.Delete(ctx, "documents/b.txt"))
}

func TestLocalStorage_FailedPutLeavesNothing(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	// A reader that fails mid-copy must not leave the key reachable.
	r := io.MultiReader(strings.NewReader("partial"), failingReader{})
	_, err = store.Put(ctx, "documents/broken.bin", r, PutOptions{Size: -1})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindStorageIO))

	ok, err := store.Exists(ctx, "documents/broken.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(ctx, "../outside", strings.NewReader("x"), PutOptions{Size: 1})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidInput))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, assert.AnError }
