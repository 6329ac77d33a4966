package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("announcement_en_1.mp3", []byte("ID3"))
	require.NoError(t, err)
	assert.Equal(t, "announcement_en_1.mp3", name)

	_, err = store.Save("announcement_en_1.mp3", []byte("other"))
	require.Error(t, err, "existing artifacts must not be overwritten")

	f, err := store.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "ID3", string(data))

	require.NoError(t, store.Delete(name))
	require.NoError(t, store.Delete(name))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../evil.mp3", []byte("x"))
	require.Error(t, err)
	_, err = store.Open("/etc/passwd")
	require.Error(t, err)
}

func TestLocalStorageListExt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("a.mp3", []byte("a"))
	require.NoError(t, err)
	_, err = store.Save("b.MP3", []byte("b"))
	require.NoError(t, err)
	_, err = store.Save("keep.txt", []byte("c"))
	require.NoError(t, err)

	names, err := store.ListExt(".mp3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.mp3", "b.MP3"}, names)

	for _, name := range names {
		require.NoError(t, store.Delete(name))
	}
	_, err = os.Stat(filepath.Join(dir, "keep.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a.mp3"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.mp3", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.mp3", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.mp3"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.mp3"}, deleted)
}
