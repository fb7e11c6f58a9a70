// Package method implements the dispatch table tweaks operate on.
//
// Classes are registered by name with an optional superclass and define
// methods per selector and scope. Every call made through Invoke or
// InvokeType reads the current implementation of the resolved slot, so
// swapping a slot's implementation redirects all subsequent calls.
package method

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cperrin88/gotweak/pkg/errors"
)

// Impl is a method implementation. For instance methods recv is the receiver;
// for class methods it is the class name.
type Impl func(recv any, args ...any) (any, error)

// implRef boxes an Impl so slots can be compared by pointer identity.
type implRef struct {
	fn Impl
}

type slot struct {
	key     Key
	current atomic.Pointer[implRef]
	// claim is the outstanding swap on this slot. Guarded by Table.mu.
	claim *Original
}

func (s *slot) load() Impl {
	return s.current.Load().fn
}

type methodID struct {
	sel   Selector
	scope Scope
}

type class struct {
	name    string
	super   *class
	methods map[methodID]*slot
}

// Table holds classes and their method slots.
type Table struct {
	mu      sync.RWMutex
	classes map[string]*class
}

var defaultTable = NewTable()

// NewTable creates an empty dispatch table.
func NewTable() *Table {
	return &Table{
		classes: make(map[string]*class),
	}
}

// DefaultTable returns the process-wide table.
func DefaultTable() *Table {
	return defaultTable
}

// DefineClass registers a class. super may be empty; otherwise it must
// already be defined.
func (t *Table) DefineClass(name, super string) error {
	if name == "" {
		return errors.Wrap(errors.ErrInvalidKey, "class name cannot be empty")
	}
	if strings.Contains(name, InstanceSeparator) {
		return errors.Wrapf(errors.ErrInvalidKey, "class name %q contains %q", name, InstanceSeparator)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.classes[name]; exists {
		return errors.Wrapf(errors.ErrClassExists, "%s", name)
	}

	c := &class{name: name, methods: make(map[methodID]*slot)}
	if super != "" {
		sc, ok := t.classes[super]
		if !ok {
			return errors.Wrapf(errors.ErrClassNotFound, "superclass %s of %s", super, name)
		}
		c.super = sc
	}

	t.classes[name] = c
	return nil
}

// HasClass reports whether a class is defined.
func (t *Table) HasClass(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.classes[name]
	return ok
}

// Define sets the implementation of a method on a class. Redefining an
// existing method replaces its implementation in place, which makes any
// outstanding Original for that slot stale and releases its claim.
func (t *Table) Define(className string, sel Selector, scope Scope, impl Impl) error {
	key := NewKey(className, sel, scope)
	if err := key.Validate(); err != nil {
		return err
	}
	if impl == nil {
		return errors.Wrapf(errors.ErrNilImplementation, "%s", key)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.classes[className]
	if !ok {
		return errors.Wrapf(errors.ErrClassNotFound, "%s", className)
	}

	id := methodID{sel: sel, scope: scope}
	s, ok := c.methods[id]
	if !ok {
		s = &slot{key: key}
		c.methods[id] = s
	}
	s.current.Store(&implRef{fn: impl})
	s.claim = nil
	return nil
}

// Resolves reports whether the key names a method the class defines or inherits.
func (t *Table) Resolves(key Key) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.classes[key.Class]
	if !ok {
		return false
	}
	return lookup(c, methodID{sel: key.Selector, scope: key.Scope}) != nil
}

// Invoke calls an instance method on recv.
func (t *Table) Invoke(className string, sel Selector, recv any, args ...any) (any, error) {
	fn, err := t.resolve(NewKey(className, sel, Instance))
	if err != nil {
		return nil, err
	}
	return fn(recv, args...)
}

// InvokeType calls a class method. The implementation receives the class
// name as its receiver.
func (t *Table) InvokeType(className string, sel Selector, args ...any) (any, error) {
	fn, err := t.resolve(NewKey(className, sel, Type))
	if err != nil {
		return nil, err
	}
	return fn(className, args...)
}

// resolve returns the current implementation for key. The lock is released
// before the implementation runs so implementations may call back into the table.
func (t *Table) resolve(key Key) (Impl, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c, ok := t.classes[key.Class]
	if !ok {
		return nil, errors.Wrapf(errors.ErrClassNotFound, "%s", key.Class)
	}
	s := lookup(c, methodID{sel: key.Selector, scope: key.Scope})
	if s == nil {
		return nil, errors.Wrapf(errors.ErrMethodNotFound, "%s", key)
	}
	return s.load(), nil
}

// lookup walks the superclass chain. Callers must hold t.mu.
func lookup(c *class, id methodID) *slot {
	for ; c != nil; c = c.super {
		if s, ok := c.methods[id]; ok {
			return s
		}
	}
	return nil
}
