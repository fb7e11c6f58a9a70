package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cperrin88/gotweak/pkg/errors"
)

// SetValue sets a configuration value by key
// Supported keys:
//   - store_path: string - Path to the tweak store
//   - scripts_dir: string - Directory of replacement scripts
//   - restore_enabled: bool - Re-enable tweaks that were enabled when saved
//   - watch: bool - Reconcile live tweaks when the store changes
//   - watch_debounce: duration - Debounce window for store changes
//   - metrics: bool - Register Prometheus hook metrics
//   - log_level: string - Logging level (debug, info, warn, error)
//   - log_format: string - Log output format (text, json)
func (c *Config) SetValue(key, value string) error {
	switch key {
	case "store_path":
		c.Settings.StorePath = value
	case "scripts_dir":
		c.Settings.ScriptsDir = value
	case "restore_enabled", "watch", "metrics":
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w for %s: %s", errors.ErrInvalidBoolValue, key, value)
		}
		switch key {
		case "restore_enabled":
			c.Settings.RestoreEnabled = boolVal
		case "watch":
			c.Settings.Watch = boolVal
		default:
			c.Settings.Metrics = boolVal
		}
	case "watch_debounce":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: watch_debounce: %v", errors.ErrConfigValidation, err)
		}
		c.Settings.WatchDebounce = d
	case "log_level":
		c.Settings.LogLevel = strings.ToLower(value)
	case "log_format":
		c.Settings.LogFormat = strings.ToLower(value)
	default:
		return fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return c.Validate()
}

// GetValue returns the value for key as a string.
func (c *Config) GetValue(key string) (string, error) {
	value, ok := c.ToMap()[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownConfigKey, key)
	}
	return value, nil
}

// ToMap returns the settings keyed by their YAML names.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()

	for i := 0; i < settingsValue.NumField(); i++ {
		field := settingsType.Field(i)
		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Handle yaml tags with options (e.g., "store_path,omitempty")
		yamlKey := strings.Split(yamlTag, ",")[0]
		result[yamlKey] = fmt.Sprint(settingsValue.Field(i).Interface())
	}

	return result
}
