package storage_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaviye/zaviye/internal/storage"
)

func backends(t *testing.T) map[string]storage.Store {
	t.Helper()

	fileStore, err := storage.NewFileStore(filepath.Join(t.TempDir(), "state", "store.json"))
	require.NoError(t, err)

	sqliteStore, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]storage.Store{
		"memory": storage.NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("missing")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, store.Set("k", `{"a":1}`))
			value, ok, err := store.Get("k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, `{"a":1}`, value)

			require.NoError(t, store.Set("k", `[]`))
			value, _, err = store.Get("k")
			require.NoError(t, err)
			require.Equal(t, `[]`, value)

			require.NoError(t, store.Delete("k"))
			require.NoError(t, store.Delete("k"))
			_, ok, err = store.Get("k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	first, err := storage.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(storage.StartedKey("glitch"), "true"))

	second, err := storage.NewFileStore(path)
	require.NoError(t, err)
	value, ok, err := second.Get(storage.StartedKey("glitch"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", value)
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := storage.NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get("anything")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = os.Stat(path + ".corrupt")
	require.NoError(t, err)
}

func TestFileStoreCorruptFileLogsFailedMoveAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	// a non-empty directory in the way makes the rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(path+".corrupt", "occupied"), 0o700))

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	store, err := storage.NewFileStore(path)
	require.NoError(t, err)

	_, ok, err := store.Get("anything")
	require.NoError(t, err)
	require.False(t, ok)
	require.Contains(t, logs.String(), "storage_file_move_aside_failed")
}

func TestKeys(t *testing.T) {
	require.Equal(t, "zaviye-glitch-messages", storage.MessagesKey("glitch"))
	require.Equal(t, "zaviye-blame-started", storage.StartedKey("blame"))
	require.Equal(t, "zaviye-chat-settings", storage.SettingsKey)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := storage.Open("redis", "")
	require.Error(t, err)
}
