package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/spf13/cobra"
)

// NewScriptCmd creates the script command.
func NewScriptCmd() *cobra.Command {
	var (
		write bool
		force bool
	)

	cmd := &cobra.Command{
		Use:   "script KEY",
		Short: "Generate a replacement script",
		Long: `Print a starter Tengo replacement script for KEY. With --write the
script is saved to the scripts directory, where processes restoring tweaks
pick it up for KEY.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.OutOrStdout(), args[0], write, force)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the script to the scripts directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing script")

	return cmd
}

func runScript(out io.Writer, rawKey string, write, force bool) error {
	key, err := method.ParseKey(rawKey)
	if err != nil {
		return err
	}

	src := hook.ScriptTemplate(key)
	if !write {
		_, err := fmt.Fprint(out, src)
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.Settings.ScriptsDir, hook.ScriptFileName(key))
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("script already exists at %s (use --force to overwrite)", path)
	}
	if err := fsutil.EnsureDir(cfg.Settings.ScriptsDir); err != nil {
		return fmt.Errorf("failed to create scripts directory: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, []byte(src), fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}

	logger.Info("Script written", logger.Fields{"key": key.String(), "path": path})
	return nil
}
