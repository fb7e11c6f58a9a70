// Package config provides configuration management for gotweak.
// It handles loading, validating, and saving the settings shared by the
// command line tool and processes hosting tweaks. The package reads YAML
// configuration files and fills in sensible defaults for anything not set.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Storage settings
	StorePath  string `yaml:"store_path,omitempty"`
	ScriptsDir string `yaml:"scripts_dir,omitempty"`

	// Runtime settings
	RestoreEnabled bool          `yaml:"restore_enabled"`
	Watch          bool          `yaml:"watch"`
	WatchDebounce  time.Duration `yaml:"watch_debounce" validate:"gte=0"`
	Metrics        bool          `yaml:"metrics"`

	// Output settings
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// Default configuration values.
const (
	// DefaultWatchDebounce is the default debounce window for store changes.
	DefaultWatchDebounce = 100 * time.Millisecond

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

var validate = validator.New()

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	storePath, err := fsutil.GetStorePath()
	if err != nil {
		// Fallback to the temp directory if we can't determine the data dir
		storePath = filepath.Join(os.TempDir(), fsutil.AppName, fsutil.StoreFileName)
	}
	scriptsDir, err := fsutil.GetScriptsDir()
	if err != nil {
		scriptsDir = filepath.Join(os.TempDir(), fsutil.AppName, fsutil.ScriptsDirName)
	}

	return &Config{
		Settings: Settings{
			StorePath:     storePath,
			ScriptsDir:    scriptsDir,
			WatchDebounce: DefaultWatchDebounce,
			LogLevel:      DefaultLogLevel,
			LogFormat:     DefaultLogFormat,
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}

	return &config, nil
}

// SaveConfig saves configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var b strings.Builder
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return []byte(b.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "LogLevel":
				return fmt.Errorf("%w: %q (use debug, info, warn or error)", errors.ErrInvalidLogLevel, s.LogLevel)
			case "LogFormat":
				return fmt.Errorf("%w: %q (use text or json)", errors.ErrInvalidLogFormat, s.LogFormat)
			}
		}
		return err
	}

	if s.StorePath != "" && !filepath.IsAbs(s.StorePath) {
		return fmt.Errorf("store_path must be absolute: %q: %w", s.StorePath, errors.ErrInvalidPath)
	}
	if s.ScriptsDir != "" && !filepath.IsAbs(s.ScriptsDir) {
		return fmt.Errorf("scripts_dir must be absolute: %q: %w", s.ScriptsDir, errors.ErrInvalidPath)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	path, err := fsutil.GetConfigFilePath()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return path, nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.StorePath == "" {
		c.Settings.StorePath = defaults.Settings.StorePath
	}
	if c.Settings.ScriptsDir == "" {
		c.Settings.ScriptsDir = defaults.Settings.ScriptsDir
	}
	if c.Settings.WatchDebounce == 0 {
		c.Settings.WatchDebounce = defaults.Settings.WatchDebounce
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	c.Settings.LogLevel = strings.ToLower(c.Settings.LogLevel)
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
	c.Settings.LogFormat = strings.ToLower(c.Settings.LogFormat)
}
