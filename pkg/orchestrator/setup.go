package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/config"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/metrics"
	"github.com/cperrin88/gotweak/pkg/store"
)

// Setup builds an orchestrator for a hosting process from settings and
// restores the persisted tweaks when a store path is set. A nil swapper or
// method.DefaultTable uses hook.Default, so the process keeps one registry for
// its table. Hook metrics are registered with promReg when s.Metrics is set. A restore error is returned together with the
// orchestrator so callers can keep running with the tweaks that did apply.
func Setup(swapper method.Swapper, s config.Settings, promReg prometheus.Registerer, events Events) (*Orchestrator, error) {
	var opts []hook.Option
	if s.Metrics {
		collector, err := metrics.New(promReg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to register hook metrics")
		}
		opts = append(opts, hook.WithMetrics(collector))
	}

	scripts, err := hook.LoadScriptsFromDir(s.ScriptsDir)
	if err != nil {
		return nil, err
	}

	var registry *hook.Registry
	if swapper == nil || swapper == method.Swapper(method.DefaultTable()) {
		registry = hook.Default()
		registry.Configure(opts...)
	} else {
		registry = hook.NewRegistry(swapper, opts...)
	}

	o := New(registry, store.New(), s.StorePath, events)
	o.Scripts = scripts
	o.RestoreEnabled = s.RestoreEnabled

	if s.StorePath == "" {
		return o, nil
	}

	logger.Debug("Restoring tweaks", logger.Fields{
		"store":           s.StorePath,
		"scripts":         len(scripts),
		"restore_enabled": s.RestoreEnabled,
	})
	if err := o.Restore(); err != nil {
		return o, err
	}
	return o, nil
}
