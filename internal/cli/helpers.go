package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/config"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

// loadConfig loads the configuration from the --config path or the default
// location and initializes logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.OutputFormat(cfg.Settings.LogFormat))
	return cfg, nil
}

// loadConfigAndStore loads the configuration and the tweak store it points to.
func loadConfigAndStore() (*config.Config, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(cfg.Settings.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tweak store: %w", err)
	}
	return cfg, st, nil
}

func saveStore(cfg *config.Config, st *store.Store) error {
	if err := st.Save(cfg.Settings.StorePath); err != nil {
		return fmt.Errorf("failed to save tweak store: %w", err)
	}
	logger.Debug("Tweak store saved", logger.Fields{"path": cfg.Settings.StorePath})
	return nil
}

func outputJSON() bool {
	return OutputFormat != nil && *OutputFormat == OutputJSON
}

// parseKeys parses every argument as a method key.
func parseKeys(args []string) ([]method.Key, error) {
	keys := make([]method.Key, 0, len(args))
	for _, arg := range args {
		key, err := method.ParseKey(arg)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
}
