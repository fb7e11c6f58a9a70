package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
	"github.com/cperrin88/gotweak/pkg/value"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tweaks",
		Long: `List the tweaks recorded in the tweak store.

Use --filter to show only tweaks whose key contains the given text.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.OutOrStdout(), filter)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Filter tweaks by key (partial match)")

	return cmd
}

func runList(out io.Writer, filter string) error {
	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	entries := st.Filtered(filter)
	if outputJSON() {
		return writeJSON(out, entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No tweaks recorded")
		return nil
	}

	scripts, err := hook.LoadScriptsFromDir(cfg.Settings.ScriptsDir)
	if err != nil {
		return err
	}

	tw := newTabWriter(out)
	_, _ = fmt.Fprintln(tw, "KEY\tSTATE\tREPLACEMENT\tADDED")
	for _, e := range entries {
		state := "disabled"
		if e.Enabled {
			state = "enabled"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Key(), state, replacementOf(e, scripts), e.AddedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func replacementOf(e *store.Entry, scripts map[method.Key]string) string {
	switch {
	case e.Value != nil:
		return "value " + e.Value.String()
	case e.Script != "":
		return "inline script"
	case scripts[e.Key()] != "":
		return "script " + hook.ScriptFileName(e.Key())
	default:
		return "-"
	}
}

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	var (
		scriptFile string
		valueSpec  string
		enable     bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "add KEY",
		Short: "Add a tweak",
		Long: `Record a tweak for a method. KEY is Class#selector for an instance
method or Class.selector for a class method.

The replacement is either a Tengo script (--script) or a constant value
(--value kind:text, e.g. int:42 or string:"hello"). Without either, the
script in the scripts directory named after KEY is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runAdd(args[0], scriptFile, valueSpec, enable, force)
		},
	}

	cmd.Flags().StringVar(&scriptFile, "script", "", "Tengo script file to use as the replacement")
	cmd.Flags().StringVar(&valueSpec, "value", "", "Constant value to return, as kind:text")
	cmd.Flags().BoolVar(&enable, "enable", false, "Mark the tweak enabled")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing tweak for the same key")
	cmd.MarkFlagsMutuallyExclusive("script", "value")

	return cmd
}

func runAdd(rawKey, scriptFile, valueSpec string, enable, force bool) error {
	key, err := method.ParseKey(rawKey)
	if err != nil {
		return err
	}

	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}
	if st.Find(key) != nil && !force {
		return fmt.Errorf("tweak %s already exists (use --force to replace it)", key)
	}

	entry := store.NewEntry(key)
	entry.Enabled = enable

	switch {
	case scriptFile != "":
		src, err := os.ReadFile(scriptFile)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}
		if _, err := hook.CompileScript(string(src)); err != nil {
			return err
		}
		entry.Script = string(src)
	case valueSpec != "":
		coord := value.NewCoordinator()
		v, err := coord.ParseSpec(valueSpec)
		if err != nil {
			return err
		}
		enc := coord.Encode(v)
		entry.Value = &enc
	}

	st.Put(entry)
	if err := saveStore(cfg, st); err != nil {
		return err
	}

	logger.Info("Tweak added", logger.Fields{"key": key.String(), "enabled": enable})
	return nil
}

// NewEnableCmd creates the enable command.
func NewEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable KEY...",
		Short: "Enable tweaks",
		Long: `Mark tweaks enabled in the tweak store. Processes watching the store
install the hooks without restarting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSetEnabled(args, true)
		},
	}
}

// NewDisableCmd creates the disable command.
func NewDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable KEY...",
		Short: "Disable tweaks",
		Long: `Mark tweaks disabled in the tweak store. Processes watching the store
restore the original implementations without restarting.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSetEnabled(args, false)
		},
	}
}

func runSetEnabled(args []string, enabled bool) error {
	keys, err := parseKeys(args)
	if err != nil {
		return err
	}

	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := st.SetEnabled(key, enabled); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		logger.Info("Tweak updated", logger.Fields{"key": key.String(), "enabled": enabled})
	}
	return saveStore(cfg, st)
}

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove KEY...",
		Short: "Remove tweaks",
		Long:  "Remove tweaks from the tweak store. Scripts in the scripts directory are kept.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRemove(args, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Ignore tweaks that are not recorded")

	return cmd
}

func runRemove(args []string, force bool) error {
	keys, err := parseKeys(args)
	if err != nil {
		return err
	}

	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	for _, key := range keys {
		if !st.Remove(key) {
			if force {
				logger.Warn("Tweak not recorded, skipping", logger.Fields{"key": key.String()})
				continue
			}
			return fmt.Errorf("%s: %w", key, errors.ErrTweakNotFound)
		}
		logger.Info("Tweak removed", logger.Fields{"key": key.String()})
	}
	return saveStore(cfg, st)
}

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check recorded tweaks",
		Long: `Verify that every recorded tweak has a supported record version, that
its value decodes and that its script compiles. Scripts in the scripts
directory are compiled as well.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.OutOrStdout())
		},
	}
}

func runCheck(out io.Writer) error {
	cfg, st, err := loadConfigAndStore()
	if err != nil {
		return err
	}

	scripts, err := hook.LoadScriptsFromDir(cfg.Settings.ScriptsDir)
	if err != nil {
		return err
	}

	coord := value.NewCoordinator()
	var errs []error
	report := func(subject string, err error) {
		if err == nil {
			return
		}
		errs = append(errs, fmt.Errorf("%s: %w", subject, err))
		_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", subject, err)
	}

	for _, e := range st.Entries() {
		key := e.Key().String()
		report(key, e.Check())
		if e.Value != nil {
			_, err := coord.Decode(*e.Value)
			report(key, err)
		}
		if e.Script != "" {
			_, err := hook.CompileScript(e.Script)
			report(key, err)
		}
	}
	scriptKeys := slices.SortedFunc(maps.Keys(scripts), method.Compare)
	for _, key := range scriptKeys {
		_, err := hook.CompileScript(scripts[key])
		report(hook.ScriptFileName(key), err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	_, _ = fmt.Fprintf(out, "OK %d tweaks, %d scripts\n", len(st.Entries()), len(scripts))
	return nil
}
