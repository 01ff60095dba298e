package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_SaveDeleteExists(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)

	key := "courses/123-abc-cover.png"
	require.NoError(t, store.Save(ctx, key, strings.NewReader("png-bytes"), 9, "image/png"))

	data, err := os.ReadFile(filepath.Join(store.Root(), "courses", "123-abc-cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	ok, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/public/courses/123-abc-cover.png", store.URL(key))

	require.NoError(t, store.Delete(ctx, key))
	assert.ErrorIs(t, store.Delete(ctx, key), ErrNotFound)

	ok, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_SaveNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "a/b.txt", strings.NewReader("first"), 5, "text/plain"))
	err = store.Save(ctx, "a/b.txt", strings.NewReader("second"), 6, "text/plain")
	assert.ErrorIs(t, err, ErrExists)

	data, err := os.ReadFile(filepath.Join(store.Root(), "a", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocal(filepath.Join(root, "content"), "/public")
	require.NoError(t, err)

	outside := filepath.Join(root, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	assert.ErrorIs(t, store.Delete(ctx, "../outside.txt"), ErrInvalidKey)
	assert.ErrorIs(t, store.Save(ctx, "../x.txt", strings.NewReader("x"), 1, "text/plain"), ErrInvalidKey)

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestLocal_SaveHonoursCancelledContext(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/public")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Save(ctx, "x.txt", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, context.Canceled)
}
