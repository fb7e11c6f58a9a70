package hook

import (
	"sync"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
)

// MethodHook describes one method slot and redirects calls to it while
// installed. Hooks are created by a Registry and start uninstalled.
//
// Two hooks are equal when they target the same class, selector and scope;
// the replacement and installation state play no part in identity.
type MethodHook struct {
	key      method.Key
	registry *Registry

	mu          sync.Mutex
	replacement method.Wrapper
	original    *method.Original
}

// Key returns the (class, selector, scope) triple the hook targets.
func (h *MethodHook) Key() method.Key {
	return h.key
}

// Target returns the hooked class name.
func (h *MethodHook) Target() string {
	return h.key.Class
}

// Selector returns the hooked selector.
func (h *MethodHook) Selector() method.Selector {
	return h.key.Selector
}

// Scope returns whether an instance or class method is hooked.
func (h *MethodHook) Scope() method.Scope {
	return h.key.Scope
}

// Registry returns the registry that created the hook.
func (h *MethodHook) Registry() *Registry {
	return h.registry
}

// String returns the key in Class#selector or Class.selector form.
func (h *MethodHook) String() string {
	return h.key.String()
}

// Equal reports whether both hooks target the same method.
func (h *MethodHook) Equal(other *MethodHook) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.key == other.key
}

// Compare orders hooks by their keys.
func (h *MethodHook) Compare(other *MethodHook) int {
	return method.Compare(h.key, other.key)
}

// SetReplacement sets the wrapper used on the next Install. Changing it
// while the hook is installed has no effect until the hook is uninstalled
// and installed again.
func (h *MethodHook) SetReplacement(w method.Wrapper) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replacement = w
}

// Replacement returns the current wrapper, or nil.
func (h *MethodHook) Replacement() method.Wrapper {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.replacement
}

// Installed reports whether the hook currently owns its method slot.
func (h *MethodHook) Installed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.original != nil
}

// Original returns the implementation captured at install time, or nil when
// the hook is not installed.
func (h *MethodHook) Original() method.Impl {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.original == nil {
		return nil
	}
	return h.original.Impl()
}

// Install swaps the replacement into the method slot. It fails without
// touching the method when the hook is already installed, when another hook
// holds the slot, or when no replacement is set.
func (h *MethodHook) Install() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.original != nil {
		return errors.Wrapf(errors.ErrAlreadyInstalled, "%s", h.key)
	}
	if h.replacement == nil {
		return errors.Wrapf(errors.ErrNoReplacement, "%s", h.key)
	}

	orig, err := h.registry.install(h, h.replacement)
	if err != nil {
		return err
	}
	h.original = orig
	return nil
}

// Uninstall restores the original implementation. It is a no-op when the
// hook is not installed. If the slot was changed after Install the original
// is stale; the hook then stays installed and the error is returned.
func (h *MethodHook) Uninstall() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.original == nil {
		return nil
	}
	if err := h.registry.uninstall(h, h.original); err != nil {
		return err
	}
	h.original = nil
	return nil
}
