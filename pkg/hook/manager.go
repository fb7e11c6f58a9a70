// Package hook installs and removes method hooks on a method.Swapper and
// guarantees that at most one hook holds a given method slot at a time.
package hook

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/metrics"
)

// Registry owns the active claims on method slots, keyed by method.Key.
type Registry struct {
	swapper method.Swapper
	metrics *metrics.Collector
	log     *slog.Logger

	mutex  sync.Mutex
	active map[method.Key]*MethodHook
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics records install and uninstall attempts on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Registry) { r.metrics = c }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry backed by method.DefaultTable.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(method.DefaultTable())
	})
	return defaultRegistry
}

// NewRegistry creates a registry that swaps implementations through swapper.
func NewRegistry(swapper method.Swapper, opts ...Option) *Registry {
	r := &Registry{
		swapper: swapper,
		active:  make(map[method.Key]*MethodHook),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.GetLogger().With("component", "hook")
	}
	return r
}

// Configure applies opts to an existing registry, such as Default.
func (r *Registry) Configure(opts ...Option) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, opt := range opts {
		opt(r)
	}
}

// NewHook describes a hook on target's selector in the given scope. It fails
// and returns nil when target is empty or the selector does not resolve.
// Nothing is installed.
func (r *Registry) NewHook(target string, sel method.Selector, scope method.Scope) (*MethodHook, error) {
	return r.Hook(method.NewKey(target, sel, scope))
}

// Hook is NewHook taking a key.
func (r *Registry) Hook(key method.Key) (*MethodHook, error) {
	if key.Class == "" {
		return nil, errors.ErrNilTarget
	}
	if err := key.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrUnresolvedSelector, "%s: %v", key, err)
	}
	if !r.swapper.Resolves(key) {
		return nil, errors.Wrapf(errors.ErrUnresolvedSelector, "%s", key)
	}
	return &MethodHook{key: key, registry: r}, nil
}

// Active returns the hook currently holding key, if any.
func (r *Registry) Active(key method.Key) (*MethodHook, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	h, ok := r.active[key]
	return h, ok
}

// ActiveKeys returns the keys of all installed hooks in key order.
func (r *Registry) ActiveKeys() []method.Key {
	r.mutex.Lock()
	keys := make([]method.Key, 0, len(r.active))
	for k := range r.active {
		keys = append(keys, k)
	}
	r.mutex.Unlock()

	slices.SortFunc(keys, method.Compare)
	return keys
}

// Close uninstalls every active hook. Errors are joined; hooks that fail to
// uninstall stay registered.
func (r *Registry) Close() error {
	r.mutex.Lock()
	hooks := make([]*MethodHook, 0, len(r.active))
	for _, h := range r.active {
		hooks = append(hooks, h)
	}
	r.mutex.Unlock()

	slices.SortFunc(hooks, (*MethodHook).Compare)

	var errs []error
	for _, h := range hooks {
		if err := h.Uninstall(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// install claims the slot and swaps the replacement in. Called with h.mu held.
func (r *Registry) install(h *MethodHook, w method.Wrapper) (*method.Original, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if holder, claimed := r.active[h.key]; claimed {
		var err error
		if holder == h {
			err = errors.Wrapf(errors.ErrAlreadyInstalled, "%s", h.key)
		} else {
			err = errors.Wrapf(errors.ErrSlotClaimed, "%s", h.key)
		}
		r.metrics.Installed(err)
		r.log.Warn("hook install rejected", "key", h.key.String(), "error", err)
		return nil, err
	}

	orig, err := r.swapper.Swap(h.key, w)
	r.metrics.Installed(err)
	if err != nil {
		r.log.Warn("hook install failed", "key", h.key.String(), "error", err)
		return nil, errors.Wrapf(err, "install %s", h.key)
	}

	r.active[h.key] = h
	r.log.Debug("hook installed", "key", h.key.String())
	return orig, nil
}

// uninstall restores orig and releases the claim. Called with h.mu held.
func (r *Registry) uninstall(h *MethodHook, orig *method.Original) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	err := r.swapper.Restore(orig)
	r.metrics.Uninstalled(err)
	if err != nil {
		r.log.Error("hook uninstall failed", "key", h.key.String(), "error", err)
		return errors.Wrapf(err, "uninstall %s", h.key)
	}

	if r.active[h.key] == h {
		delete(r.active, h.key)
	}
	r.log.Debug("hook uninstalled", "key", h.key.String())
	return nil
}
