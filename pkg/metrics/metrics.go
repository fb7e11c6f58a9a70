// Package metrics exposes Prometheus collectors for hook activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector groups the hook metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	installs   *prometheus.CounterVec
	uninstalls *prometheus.CounterVec
	active     prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gotweak",
			Name:      "hook_installs_total",
			Help:      "Hook install attempts by result.",
		}, []string{"result"}),
		uninstalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gotweak",
			Name:      "hook_uninstalls_total",
			Help:      "Hook uninstall attempts by result.",
		}, []string{"result"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gotweak",
			Name:      "hooks_active",
			Help:      "Number of currently installed hooks.",
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.installs, c.uninstalls, c.active} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Installed records an install attempt.
func (c *Collector) Installed(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.installs.WithLabelValues(ResultFailure).Inc()
		return
	}
	c.installs.WithLabelValues(ResultSuccess).Inc()
	c.active.Inc()
}

// Uninstalled records an uninstall attempt.
func (c *Collector) Uninstalled(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.uninstalls.WithLabelValues(ResultFailure).Inc()
		return
	}
	c.uninstalls.WithLabelValues(ResultSuccess).Inc()
	c.active.Dec()
}

// Installs returns the install counter vector.
func (c *Collector) Installs() *prometheus.CounterVec {
	return c.installs
}

// Uninstalls returns the uninstall counter vector.
func (c *Collector) Uninstalls() *prometheus.CounterVec {
	return c.uninstalls
}

// Active returns the active hooks gauge.
func (c *Collector) Active() prometheus.Gauge {
	return c.active
}
