package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	_, ok := s.Get("uid")
	assert.False(t, ok)

	require.NoError(t, s.Set("uid", "alice@example.com"))
	v, ok := s.Get("uid")
	assert.True(t, ok)
	assert.Equal(t, "alice@example.com", v)

	require.NoError(t, s.Set("uid", "bob@example.com"))
	v, _ = s.Get("uid")
	assert.Equal(t, "bob@example.com", v)

	require.NoError(t, s.Remove("uid"))
	_, ok = s.Get("uid")
	assert.False(t, ok)

	// removing a missing key is not an error
	require.NoError(t, s.Remove("uid"))
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestFile(t *testing.T) {
	exerciseStorage(t, newTestFile(t))
}

func TestNoop(t *testing.T) {
	s := Noop{}
	require.NoError(t, s.Set("uid", "x"))
	_, ok := s.Get("uid")
	assert.False(t, ok)
	require.NoError(t, s.Remove("uid"))
}

func newTestFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	require.NoError(t, err)
	return f
}

func TestFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}

	f := newTestFile(t)
	require.NoError(t, f.Set("accessToken", "secret"))

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(f.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestFile_SeesWritesFromOtherInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	a, err := NewFile(path)
	require.NoError(t, err)
	b, err := NewFile(path)
	require.NoError(t, err)

	require.NoError(t, a.Set("client", "c1"))
	v, ok := b.Get("client")
	assert.True(t, ok)
	assert.Equal(t, "c1", v)

	require.NoError(t, b.Set("expiry", "100"))
	v, _ = a.Get("expiry")
	assert.Equal(t, "100", v)
	v, _ = a.Get("client")
	assert.Equal(t, "c1", v)
}

func TestFile_CorruptFile(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, os.WriteFile(f.Path(), []byte("{not json"), 0600))

	_, ok := f.Get("uid")
	assert.False(t, ok)
	assert.Error(t, f.Set("uid", "x"))
}

func TestNewFile_RequiresPath(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestWatcher_ReportsExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	writer, err := NewFile(path)
	require.NoError(t, err)

	var calls atomic.Int32
	w := NewWatcher(WatcherConfig{
		Path:          path,
		Debounce:      20 * time.Millisecond,
		WatchInterval: 50 * time.Millisecond,
		OnChange:      func() { calls.Add(1) },
	})
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.True(t, w.IsRunning())

	require.NoError(t, writer.Set("accessToken", "a"))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	var calls atomic.Int32
	w := NewWatcher(WatcherConfig{
		Path:     path,
		Debounce: 10 * time.Millisecond,
		OnChange: func() { calls.Add(1) },
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(WatcherConfig{Path: filepath.Join(t.TempDir(), "c.json")})
	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
}
