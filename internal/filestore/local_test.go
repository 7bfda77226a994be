package filestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/config"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

func newLocal(t *testing.T) Store {
	t.Helper()
	store, err := New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": filepath.Join(t.TempDir(), "blobs")},
	})
	require.NoError(t, err)
	return store
}

func TestLocalPutGet(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "a.bin", []byte("payload"), "application/octet-stream"))
	data, err := store.Get(ctx, "a.bin")
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestLocalGetMissing(t *testing.T) {
	store := newLocal(t)
	_, err := store.Get(context.Background(), "nope.bin")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestLocalRejectsTraversalKeys(t *testing.T) {
	store := newLocal(t)
	ctx := context.Background()
	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		require.Error(t, store.Put(ctx, key, []byte("x"), ""), "key=%q", key)
		_, err := store.Get(ctx, key)
		require.Error(t, err, "key=%q", key)
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "ftp"})
	require.Error(t, err)
	_, err = New(config.FileStoreConfig{})
	require.Error(t, err)
}

func TestLocalRequiresDir(t *testing.T) {
	_, err := New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{}})
	require.Error(t, err)
}
