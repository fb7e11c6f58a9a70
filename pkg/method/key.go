package method

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/cperrin88/gotweak/pkg/errors"
)

// Scope discriminates instance methods from type-level (class) methods.
type Scope int

// Supported scopes.
const (
	Instance Scope = iota
	Type
)

// Key separators used by Key.String and ParseKey.
const (
	InstanceSeparator = "#"
	TypeSeparator     = "."
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case Instance:
		return "instance"
	case Type:
		return "class"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope parses a scope name. "type" is accepted as an alias of "class".
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instance", "":
		return Instance, nil
	case "class", "type":
		return Type, nil
	default:
		return Instance, fmt.Errorf("%w: %q", errors.ErrInvalidScope, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	if s != Instance && s != Type {
		return nil, fmt.Errorf("%w: %d", errors.ErrInvalidScope, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(text []byte) error {
	parsed, err := ParseScope(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Selector names a method.
type Selector string

// Key identifies one method slot: a class, a selector and a scope.
// Keys are comparable and can be used directly as map keys.
type Key struct {
	Class    string
	Selector Selector
	Scope    Scope
}

// NewKey returns the key for the given triple.
func NewKey(class string, sel Selector, scope Scope) Key {
	return Key{Class: class, Selector: sel, Scope: scope}
}

// String renders the key as Class#selector for instance methods and
// Class.selector for class methods.
func (k Key) String() string {
	sep := InstanceSeparator
	if k.Scope == Type {
		sep = TypeSeparator
	}
	return k.Class + sep + string(k.Selector)
}

// Validate checks that every part of the key is set and that the key
// survives a round trip through String and ParseKey. Class names may
// contain dots but not the instance separator.
func (k Key) Validate() error {
	if k.Class == "" {
		return fmt.Errorf("%w: empty class", errors.ErrInvalidKey)
	}
	if strings.Contains(k.Class, InstanceSeparator) {
		return fmt.Errorf("%w: class %q contains %q", errors.ErrInvalidKey, k.Class, InstanceSeparator)
	}
	if k.Selector == "" {
		return fmt.Errorf("%w: empty selector", errors.ErrInvalidKey)
	}
	if strings.ContainsAny(string(k.Selector), InstanceSeparator+TypeSeparator) {
		return fmt.Errorf("%w: selector %q contains a separator", errors.ErrInvalidKey, k.Selector)
	}
	if k.Scope != Instance && k.Scope != Type {
		return fmt.Errorf("%w: %d", errors.ErrInvalidScope, int(k.Scope))
	}
	return nil
}

// ParseKey parses the output of Key.String. The selector is taken from the
// last separator so class names may themselves contain dots.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)

	if i := strings.LastIndex(s, InstanceSeparator); i >= 0 {
		k := NewKey(s[:i], Selector(s[i+1:]), Instance)
		return k, k.Validate()
	}
	if i := strings.LastIndex(s, TypeSeparator); i >= 0 {
		k := NewKey(s[:i], Selector(s[i+1:]), Type)
		return k, k.Validate()
	}
	return Key{}, fmt.Errorf("%w: %q", errors.ErrInvalidKey, s)
}

// Compare orders keys by class, then selector, then scope.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Class, b.Class); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Selector, b.Selector); c != 0 {
		return c
	}
	return cmp.Compare(a.Scope, b.Scope)
}
