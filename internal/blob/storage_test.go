package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorages(t *testing.T) map[string]Storage {
	fs, err := NewFileStorage(t.TempDir(), log.New(io.Discard))
	require.NoError(t, err)
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   fs,
	}
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range testStorages(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, "search_history", []byte(`{"queries":[]}`)))
			got, ok, err := s.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"queries":[]}`, string(got))

			require.NoError(t, s.Set(ctx, "search_history", []byte(`{}`)))
			got, _, err = s.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.Equal(t, `{}`, string(got))

			require.NoError(t, s.Delete(ctx, "search_history"))
			require.NoError(t, s.Delete(ctx, "search_history"))
			_, ok, err = s.Get(ctx, "search_history")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileStorageRejectsPathKeys(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir(), log.New(io.Discard))
	require.NoError(t, err)

	err = fs.Set(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestFileStorageLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir, log.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, fs.Set(context.Background(), "k", []byte("v")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "k.json", entries[0].Name())
	assert.Equal(t, filepath.Join(dir, "k.json"), fs.Path("k"))
}
