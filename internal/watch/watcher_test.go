package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, debounce time.Duration, paths ...string) *FileWatcher {
	t.Helper()
	fw, err := NewFileWatcher(debounce, nil, paths...)
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	t.Cleanup(func() { _ = fw.Stop() })
	return fw
}

func expectChange(t *testing.T, fw *FileWatcher, want string) {
	t.Helper()
	select {
	case got := <-fw.Changes():
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatalf("no change reported for %s", want)
	}
}

func expectQuiet(t *testing.T, fw *FileWatcher, wait time.Duration) {
	t.Helper()
	select {
	case got := <-fw.Changes():
		t.Fatalf("unexpected change for %s", got)
	case <-time.After(wait):
	}
}

func TestFileWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	fw := startWatcher(t, 0, path)
	require.NoError(t, os.WriteFile(path, []byte("b"), 0644))

	expectChange(t, fw, path)
}

func TestFileWatcher_ReportsCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	fw := startWatcher(t, 20*time.Millisecond, path)
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	expectChange(t, fw, path)
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	fw := startWatcher(t, 0, path)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("b"), 0644))

	expectQuiet(t, fw, 200*time.Millisecond)
}

func TestFileWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	fw := startWatcher(t, 150*time.Millisecond, path)
	for _, content := range []string{"b", "c", "d"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	expectChange(t, fw, path)
	expectQuiet(t, fw, 300*time.Millisecond)
}

func TestFileWatcher_Files(t *testing.T) {
	dir := t.TempDir()
	b := filepath.Join(dir, "b.yaml")
	a := filepath.Join(dir, "a.toml")

	fw, err := NewFileWatcher(0, nil, b, "", a)
	require.NoError(t, err)
	defer func() { _ = fw.Stop() }()

	assert.Equal(t, []string{a, b}, fw.Files())
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	fw, err := NewFileWatcher(0, nil, filepath.Join(t.TempDir(), "x"))
	require.NoError(t, err)
	require.NoError(t, fw.Start())
	require.NoError(t, fw.Start())

	assert.NoError(t, fw.Stop())
	assert.NoError(t, fw.Stop())
	assert.NoError(t, fw.Start(), "start after stop is a no-op")
}

func TestFileWatcher_SkipsMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
	missing := filepath.Join(dir, "nope", "popanchor", "config.toml")

	fw := startWatcher(t, 0, path, missing)
	assert.Equal(t, []string{missing, path}, fw.Files())

	require.NoError(t, os.WriteFile(path, []byte("b"), 0644))
	expectChange(t, fw, path)
}

