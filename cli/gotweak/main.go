package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cperrin88/gotweak/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	verbose      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gotweak",
		Short: "Manage runtime method tweaks",
		Long: `gotweak records tweaks that replace method implementations at runtime:
- CLI: add, enable, disable and remove tweaks in the tweak store
- Library: hook methods and restore the recorded tweaks in your process
- Tooling: generate replacement scripts and share tweaks as bundles`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (json, table)")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.OutputFormat = &outputFormat

	// Add subcommands
	cmd.AddCommand(
		cli.NewListCmd(),
		cli.NewAddCmd(),
		cli.NewEnableCmd(),
		cli.NewDisableCmd(),
		cli.NewRemoveCmd(),
		cli.NewCheckCmd(),
		cli.NewScriptCmd(),
		cli.NewExportCmd(),
		cli.NewImportCmd(),
		cli.NewDemoCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
