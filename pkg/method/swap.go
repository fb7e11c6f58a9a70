//go:generate mockgen -destination=./mocks/swapper.go . Swapper

package method

import (
	"github.com/cperrin88/gotweak/pkg/errors"
)

// Wrapper builds a replacement implementation around the captured original.
type Wrapper func(original Impl) Impl

// Original is the handle returned by Swap. It records what the slot held
// before the swap and what was installed, so Restore can detect when the
// slot has been changed underneath it.
type Original struct {
	key       Key
	impl      Impl
	previous  *implRef
	installed *implRef
	slot      *slot
	added     bool
}

// Key returns the key of the swapped slot.
func (o *Original) Key() Key {
	return o.key
}

// Impl returns the captured original implementation.
func (o *Original) Impl() Impl {
	return o.impl
}

// Swapper is the primitive that redirects a method slot to a replacement and
// puts the original back.
type Swapper interface {
	// Resolves reports whether key names an existing method.
	Resolves(key Key) bool

	// Swap captures the current implementation of key, installs the wrapper's
	// replacement and returns a handle to the original. It fails with
	// ErrSlotClaimed while an earlier swap of key is outstanding.
	Swap(key Key, wrap Wrapper) (*Original, error)

	// Restore reinstalls the original implementation. It fails with
	// ErrStaleOriginal if the slot no longer holds what Swap installed.
	Restore(orig *Original) error
}

var _ Swapper = (*Table)(nil)

// Swap implements Swapper. Swapping an inherited method adds an override slot
// on key.Class whose original forwards to the superclass slot; Restore removes
// that override again. A slot holds at most one swap at a time, whichever
// registry asked for it.
func (t *Table) Swap(key Key, wrap Wrapper) (*Original, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if wrap == nil {
		return nil, errors.Wrapf(errors.ErrNilImplementation, "%s", key)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.classes[key.Class]
	if !ok {
		return nil, errors.Wrapf(errors.ErrClassNotFound, "%s", key.Class)
	}

	id := methodID{sel: key.Selector, scope: key.Scope}
	orig := &Original{key: key}

	s, own := c.methods[id]
	if own && s.claim != nil {
		return nil, errors.Wrapf(errors.ErrSlotClaimed, "%s", key)
	}
	if own {
		orig.previous = s.current.Load()
		orig.impl = orig.previous.fn
	} else {
		inherited := lookup(c.super, id)
		if inherited == nil {
			return nil, errors.Wrapf(errors.ErrMethodNotFound, "%s", key)
		}
		orig.impl = func(recv any, args ...any) (any, error) {
			return inherited.load()(recv, args...)
		}
		orig.added = true
		s = &slot{key: key}
	}

	replacement := wrap(orig.impl)
	if replacement == nil {
		return nil, errors.Wrapf(errors.ErrNilImplementation, "replacement for %s", key)
	}

	orig.installed = &implRef{fn: replacement}
	orig.slot = s
	s.claim = orig
	s.current.Store(orig.installed)
	if orig.added {
		c.methods[id] = s
	}

	return orig, nil
}

// Restore implements Swapper.
func (t *Table) Restore(orig *Original) error {
	if orig == nil || orig.slot == nil {
		return errors.Wrap(errors.ErrStaleOriginal, "nil original handle")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.classes[orig.key.Class]
	if !ok {
		return errors.Wrapf(errors.ErrClassNotFound, "%s", orig.key.Class)
	}

	id := methodID{sel: orig.key.Selector, scope: orig.key.Scope}
	s, ok := c.methods[id]
	if !ok || s != orig.slot || s.claim != orig || s.current.Load() != orig.installed {
		return errors.Wrapf(errors.ErrStaleOriginal, "%s", orig.key)
	}

	s.claim = nil

	if orig.added {
		delete(c.methods, id)
	} else {
		s.current.Store(orig.previous)
	}
	return nil
}
