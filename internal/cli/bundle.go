package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/bundle"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "export ARCHIVE",
		Short: "Export tweaks to a bundle",
		Long: `Write the recorded tweaks and their scripts to a tar.gz bundle that can
be imported elsewhere and print its SHA-256 checksum. Use --filter to export
only matching tweaks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), args[0], filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Export only tweaks whose key contains this text")

	return cmd
}

func runExport(ctx context.Context, out io.Writer, archivePath, filter string) error {
	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	scripts, err := hook.LoadScriptsFromDir(cfg.Settings.ScriptsDir)
	if err != nil {
		return err
	}

	contents := bundle.Contents{
		Entries: st.Filtered(filter),
		Scripts: make(map[method.Key]string),
	}
	for _, e := range contents.Entries {
		if src, ok := scripts[e.Key()]; ok {
			contents.Scripts[e.Key()] = src
		}
	}

	if err := bundle.Export(ctx, contents, archivePath); err != nil {
		return fmt.Errorf("failed to export tweaks: %w", err)
	}

	checksum, err := bundle.Checksum(archivePath)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s  %s\n", checksum, archivePath)

	logger.Info("Tweaks exported", logger.Fields{"path": archivePath, "tweaks": len(contents.Entries)})
	return nil
}

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	var (
		disabled bool
		checksum string
	)

	cmd := &cobra.Command{
		Use:   "import ARCHIVE|URL",
		Short: "Import tweaks from a bundle",
		Long: `Merge the tweaks of a bundle into the tweak store and copy its scripts to
the scripts directory. Tweaks with the same key are replaced.

ARCHIVE may be an http or https URL; use --sha256 to verify the download.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), args[0], checksum, disabled)
		},
	}

	cmd.Flags().BoolVar(&disabled, "disabled", false, "Import every tweak disabled")
	cmd.Flags().StringVar(&checksum, "sha256", "", "Expected SHA-256 checksum of the bundle")

	return cmd
}

func runImport(ctx context.Context, archivePath, checksum string, disabled bool) error {
	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	switch {
	case bundle.IsRemote(archivePath):
		dir, err := os.MkdirTemp("", "gotweak-download-*")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(dir) }()

		logger.Debug("Downloading bundle", logger.Fields{"url": archivePath})
		fetcher := bundle.NewFetcher(bundle.DefaultFetchTimeout, "gotweak/"+Version)
		if archivePath, err = fetcher.Fetch(ctx, archivePath, checksum, dir); err != nil {
			return fmt.Errorf("failed to download bundle: %w", err)
		}
	case checksum != "":
		got, err := bundle.Checksum(archivePath)
		if err != nil {
			return err
		}
		if !strings.EqualFold(got, strings.TrimSpace(checksum)) {
			return fmt.Errorf("%s: got %s: %w", archivePath, got, errors.ErrChecksumMismatch)
		}
	}

	contents, err := bundle.Import(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("failed to import tweaks: %w", err)
	}
	if disabled {
		for _, e := range contents.Entries {
			e.Enabled = false
		}
	}

	if len(contents.Scripts) > 0 {
		if err := fsutil.EnsureDir(cfg.Settings.ScriptsDir); err != nil {
			return fmt.Errorf("failed to create scripts directory: %w", err)
		}
	}
	for key, src := range contents.Scripts {
		path := filepath.Join(cfg.Settings.ScriptsDir, hook.ScriptFileName(key))
		if err := fsutil.WriteFileAtomic(path, []byte(src), fsutil.FileModeDefault); err != nil {
			return fmt.Errorf("failed to write script %s: %w", key, err)
		}
	}

	n := contents.Merge(st)
	if err := saveStore(cfg, st); err != nil {
		return err
	}

	logger.Info("Tweaks imported", logger.Fields{"path": archivePath, "tweaks": n, "scripts": len(contents.Scripts)})
	return nil
}
