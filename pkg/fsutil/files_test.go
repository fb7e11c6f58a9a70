package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "store.json")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), FileModeSecure))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	require.NoError(t, WriteFileAtomic(path, []byte("second"), FileModeSecure))
	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(FileModeSecure), info.Mode().Perm())
	}

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileAtomic_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.Mkdir(target, DirModeDefault))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), nil, FileModeDefault))

	assert.Error(t, WriteFileAtomic(target, []byte("x"), FileModeDefault))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopy(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "src.txt")
	dst := filepath.Join(tempDir, "out", "dst.txt")

	require.NoError(t, os.WriteFile(src, []byte("copy me"), FileModeDefault))
	require.NoError(t, Copy(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "copy me", string(content))

	assert.Error(t, Copy(filepath.Join(tempDir, "missing"), dst))
}
