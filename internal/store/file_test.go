package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFileStore(t *testing.T, path string) *FileStore {
	t.Helper()
	s, err := NewFileStore(path, zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileStore_MissingFileIsAbsent(t *testing.T) {
	s := newTestFileStore(t, filepath.Join(t.TempDir(), "prefs", "settings.json"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, City{}, <-s.ObserveCity(ctx))
}

func TestFileStore_SavePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := newTestFileStore(t, path)
	require.NoError(t, first.SaveCity(ctx, "Islamabad"))

	second := newTestFileStore(t, path)
	assert.Equal(t, City{Name: "Islamabad", Valid: true}, <-second.ObserveCity(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Islamabad"}`, string(data))
}

func TestFileStore_AtomicWriteLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := newTestFileStore(t, path)

	require.NoError(t, s.SaveCity(context.Background(), "Multan"))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_KeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","city":"Sukkur"}`), 0o644))

	s := newTestFileStore(t, path)
	require.NoError(t, s.SaveCity(context.Background(), "Hyderabad"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"theme":"dark","city":"Hyderabad"}`, string(data))
}

func TestFileStore_CorruptFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	s := newTestFileStore(t, path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, City{}, <-s.ObserveCity(ctx))
	require.NoError(t, s.SaveCity(ctx, "Gwadar"))
	assert.Equal(t, City{Name: "Gwadar", Valid: true}, <-s.ObserveCity(ctx))
}

func TestFileStore_SaveErrorIsStorageError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	s := newTestFileStore(t, path)

	// A directory where the temp file should go makes the write fail.
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	err := s.SaveCity(context.Background(), "Lahore")
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "save", storageErr.Op)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Equal(t, City{}, <-s.ObserveCity(ctx))
}

func TestFileStore_ReloadEmitsExternalChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := newTestFileStore(t, path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.ObserveCity(ctx)
	<-ch

	require.NoError(t, os.WriteFile(path, []byte(`{"city":"Peshawar"}`), 0o644))
	require.NoError(t, s.Reload())
	assert.Equal(t, City{Name: "Peshawar", Valid: true}, <-ch)

	// Unchanged contents do not emit again.
	require.NoError(t, s.Reload())
	select {
	case v := <-ch:
		t.Fatalf("unexpected emission %+v", v)
	default:
	}
}

func TestFileStore_ReloadKeepsLastValueOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := newTestFileStore(t, path)
	require.NoError(t, s.SaveCity(context.Background(), "Quetta"))

	require.NoError(t, os.WriteFile(path, []byte(`garbage`), 0o644))
	err := s.Reload()
	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	assert.Equal(t, City{Name: "Quetta", Valid: true}, <-s.ObserveCity(ctx))
}

func TestFileStore_WatchPicksUpOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := newTestFileStore(t, path)
	require.NoError(t, s.Watch())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := s.ObserveCity(ctx)
	<-ch

	other := newTestFileStore(t, path)
	require.NoError(t, other.SaveCity(ctx, "Faisalabad"))

	select {
	case v := <-ch:
		assert.Equal(t, City{Name: "Faisalabad", Valid: true}, v)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the external write")
	}
}

func TestFileStore_WatchTwiceFails(t *testing.T) {
	s := newTestFileStore(t, filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, s.Watch())
	assert.Error(t, s.Watch())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
