// Package tweak wraps method hooks in toggleable tweaks.
//
// A Tweak owns exactly one hook.MethodHook. Enabling a tweak installs the
// hook, disabling it restores the original method. Tweak identity is the
// hook's (class, selector, scope) triple, so two tweaks targeting the same
// method are the same tweak whether or not either is enabled.
package tweak

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
)

// FailureFunc receives the reason an Enable call failed. It is called only
// on failure, exactly once per failed call, before Enable returns. A
// successful Enable never calls it.
type FailureFunc func(err error)

// Tweak is a toggleable method hook.
type Tweak struct {
	hook *hook.MethodHook
	log  *slog.Logger

	// mu serializes Enable and Disable.
	mu sync.Mutex
}

// New wraps h. It returns nil and ErrNilHook when h is nil.
func New(h *hook.MethodHook) (*Tweak, error) {
	if h == nil {
		return nil, errors.ErrNilHook
	}
	return &Tweak{
		hook: h,
		log:  logger.GetLogger().With("component", "tweak", "key", h.Key().String()),
	}, nil
}

// ForInstanceMethod creates a tweak hooking an instance method of target.
// It fails under the same conditions as hook.Registry.NewHook.
func ForInstanceMethod(reg *hook.Registry, target string, sel method.Selector) (*Tweak, error) {
	h, err := reg.NewHook(target, sel, method.Instance)
	if err != nil {
		return nil, err
	}
	return New(h)
}

// ForTypeMethod creates a tweak hooking a class method of target.
func ForTypeMethod(reg *hook.Registry, target string, sel method.Selector) (*Tweak, error) {
	h, err := reg.NewHook(target, sel, method.Type)
	if err != nil {
		return nil, err
	}
	return New(h)
}

// Hook returns the tweak's hook. Use it to change the replacement; changes
// made while the tweak is enabled apply only after Disable and Enable.
func (t *Tweak) Hook() *hook.MethodHook {
	return t.hook
}

// Key returns the hooked method's key.
func (t *Tweak) Key() method.Key {
	return t.hook.Key()
}

// Enabled reports whether the tweak's hook is installed.
func (t *Tweak) Enabled() bool {
	return t.hook.Installed()
}

// Enable installs the hook. On failure the tweak stays disabled and
// onFailure is called with the reason; on success onFailure is not called.
// Enabling an enabled tweak does nothing.
func (t *Tweak) Enable(onFailure FailureFunc) {
	err := t.enable()
	if err == nil {
		return
	}

	t.log.Warn("tweak enable failed", "error", err)
	if onFailure != nil {
		onFailure(err)
	}
}

func (t *Tweak) enable() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hook.Installed() {
		t.log.Debug("tweak already enabled")
		return nil
	}
	if err := t.hook.Install(); err != nil {
		return err
	}

	t.log.Info("tweak enabled")
	return nil
}

// Disable uninstalls the hook. Disabling a disabled tweak does nothing. If
// the method slot was changed by someone else since Enable, the original
// cannot be restored safely; the tweak stays enabled and the error is returned.
func (t *Tweak) Disable() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hook.Installed() {
		t.log.Debug("tweak already disabled")
		return nil
	}
	if err := t.hook.Uninstall(); err != nil {
		t.log.Error("tweak disable failed", "error", err)
		return err
	}

	t.log.Info("tweak disabled")
	return nil
}

// Close disables the tweak. Call it before dropping a tweak.
func (t *Tweak) Close() error {
	return t.Disable()
}

// Equal reports whether both tweaks hook the same method.
func (t *Tweak) Equal(other *Tweak) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.hook.Equal(other.hook)
}

// Compare orders tweaks by SortKey, then by key.
func (t *Tweak) Compare(other *Tweak) int {
	if c := strings.Compare(t.SortKey(), other.SortKey()); c != 0 {
		return c
	}
	return method.Compare(t.Key(), other.Key())
}

// SortKey is a presentation ordering key, e.g. "foo bar" for Foo#bar and
// "foo bar (class)" for Foo.bar. It plays no part in identity.
func (t *Tweak) SortKey() string {
	k := t.Key()
	s := strings.ToLower(k.Class) + " " + strings.ToLower(string(k.Selector))
	if k.Scope == method.Type {
		s += " (class)"
	}
	return s
}

// String describes the tweak.
func (t *Tweak) String() string {
	state := "disabled"
	if t.Enabled() {
		state = "enabled"
	}
	return fmt.Sprintf("%s [%s]", t.Key(), state)
}
