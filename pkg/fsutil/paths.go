package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// AppName is the name of the application used in paths
	AppName = "gotweak"

	// ConfigFileName is the default configuration file name.
	ConfigFileName = "config.yaml"

	// StoreFileName is the default tweak store file name.
	StoreFileName = "tweaks.json"

	// ScriptsDirName holds replacement scripts inside the data directory.
	ScriptsDirName = "scripts"
)

// GetConfigDir returns the platform-specific configuration directory
// On Linux: ~/.config/gotweak/
// On macOS: ~/Library/Application Support/gotweak/
// On Windows: %AppData%\gotweak\
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}

// GetConfigFilePath returns the default configuration file path.
func GetConfigFilePath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// getAppDataDir returns the platform-specific base data directory
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func getAppDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			return "", errors.New("LOCALAPPDATA environment variable not set")
		}
		return localAppData, nil

	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil

	default: // Linux, BSD, etc.
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			return xdgDataHome, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// GetDataDir returns the platform-specific data directory for the application
// On Linux: ~/.local/share/gotweak/
// On macOS: ~/Library/Application Support/gotweak/
// On Windows: %LOCALAPPDATA%\gotweak\
func GetDataDir() (string, error) {
	baseDir, err := getAppDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(baseDir, AppName), nil
}

// GetStorePath returns the default tweak store path.
// Format: <data_dir>/tweaks.json
func GetStorePath() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, StoreFileName), nil
}

// GetScriptsDir returns the default directory for replacement scripts.
// Format: <data_dir>/scripts/
func GetScriptsDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, ScriptsDirName), nil
}

// EnsureDirs creates the data and scripts directories if they don't exist
func EnsureDirs() error {
	dirs := []func() (string, error){
		GetDataDir,
		GetScriptsDir,
	}

	for _, dirFn := range dirs {
		dir, err := dirFn()
		if err != nil {
			return err
		}
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}
