package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/orchestrator"
)

// Demo class and selectors defined by the demo command.
const (
	DemoClass = "Greeter"

	demoGreeting method.Selector = "greeting"
	demoName     method.Selector = "name"
	demoDefault  method.Selector = "default"
)

// DefaultDemoInterval is how often the demo prints its greeting.
const DefaultDemoInterval = 2 * time.Second

// NewDemoCmd creates the demo command.
func NewDemoCmd() *cobra.Command {
	var (
		interval    time.Duration
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a process hosting tweaks",
		Long: `Define the Greeter class (Greeter#greeting, Greeter#name and
Greeter.default), restore the recorded tweaks and print a greeting at a fixed
interval. With watch enabled in the configuration, tweaks added, enabled or
disabled from another terminal apply while the demo runs.

Try:
  gotweak add 'Greeter#name' --value 'string:"tweaked"' --enable`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), interval, metricsAddr)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", DefaultDemoInterval, "How often to print the greeting")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

// defineDemo registers the demo class on table.
func defineDemo(table *method.Table) error {
	if err := table.DefineClass(DemoClass, ""); err != nil {
		return err
	}
	if err := table.Define(DemoClass, demoName, method.Instance, func(any, ...any) (any, error) {
		return "world", nil
	}); err != nil {
		return err
	}
	if err := table.Define(DemoClass, demoDefault, method.Type, func(any, ...any) (any, error) {
		return "Hello", nil
	}); err != nil {
		return err
	}
	return table.Define(DemoClass, demoGreeting, method.Instance, func(recv any, _ ...any) (any, error) {
		salutation, err := table.InvokeType(DemoClass, demoDefault)
		if err != nil {
			return nil, err
		}
		name, err := table.Invoke(DemoClass, demoName, recv)
		if err != nil {
			return nil, err
		}
		return fmt.Sprintf("%v, %v!", salutation, name), nil
	})
}

func runDemo(ctx context.Context, out io.Writer, interval time.Duration, metricsAddr string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table := method.NewTable()
	if err := defineDemo(table); err != nil {
		return err
	}

	promReg := prometheus.NewRegistry()
	settings := cfg.Settings
	if metricsAddr != "" {
		settings.Metrics = true
	}

	o, err := orchestrator.Setup(table, settings, promReg, orchestrator.Events{
		OnEvent: func(e orchestrator.Event) {
			if e.Phase == "error" {
				logger.Warn("Tweak event", logger.Fields{"key": e.Key.String(), "msg": e.Msg})
				return
			}
			logger.Debug("Tweak event", logger.Fields{"phase": e.Phase, "key": e.Key.String(), "msg": e.Msg})
		},
	})
	if o == nil {
		return err
	}
	if err != nil {
		logger.Warn("Some tweaks could not be restored", logger.Fields{"error": err})
	}
	defer func() { _ = o.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", logger.Fields{"error": err})
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if settings.Watch {
		if err := fsutil.EnsureFileDir(settings.StorePath); err != nil {
			return err
		}
		go func() {
			if err := o.Watch(ctx, orchestrator.WatchOptions{Debounce: settings.WatchDebounce}); err != nil {
				logger.Error("Watching the tweak store failed", logger.Fields{"error": err})
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		greeting, err := table.Invoke(DemoClass, demoGreeting, struct{}{})
		if err != nil {
			_, _ = fmt.Fprintf(out, "error: %v\n", err)
		} else {
			_, _ = fmt.Fprintln(out, greeting)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
