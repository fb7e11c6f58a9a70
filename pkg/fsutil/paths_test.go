package fsutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_DATA_HOME only applies on Linux and BSD")
	}

	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataHome, AppName), dataDir)

	storePath, err := GetStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, StoreFileName), storePath)

	scriptsDir, err := GetScriptsDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, ScriptsDirName), scriptsDir)

	require.NoError(t, EnsureDirs())
	assert.DirExists(t, dataDir)
	assert.DirExists(t, scriptsDir)
}

func TestConfigFilePath(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux and BSD")
	}

	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	path, err := GetConfigFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configHome, AppName, ConfigFileName), path)
}
