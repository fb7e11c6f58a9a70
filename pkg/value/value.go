// Package value defines the values edited through tweak value cells and the
// boundary value cells use to report edits back.
package value

import (
	"fmt"
	"strconv"

	"github.com/cperrin88/gotweak/pkg/errors"
)

// Kind names the type of a Value.
type Kind string

// Supported kinds.
const (
	KindNil    Kind = "nil"
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
)

// Value is an opaque, describable unit a cell can present and edit.
type Value interface {
	// Kind returns the value's kind.
	Kind() Kind
	// Describe returns the text a cell shows for the value.
	Describe() string
	// Interface returns the underlying Go value.
	Interface() any
}

type nilValue struct{}

func (nilValue) Kind() Kind       { return KindNil }
func (nilValue) Describe() string { return "nil" }
func (nilValue) Interface() any   { return nil }

type boolValue bool

func (v boolValue) Kind() Kind       { return KindBool }
func (v boolValue) Describe() string { return strconv.FormatBool(bool(v)) }
func (v boolValue) Interface() any   { return bool(v) }

type intValue int64

func (v intValue) Kind() Kind       { return KindInt }
func (v intValue) Describe() string { return strconv.FormatInt(int64(v), 10) }
func (v intValue) Interface() any   { return int64(v) }

type floatValue float64

func (v floatValue) Kind() Kind       { return KindFloat }
func (v floatValue) Describe() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v floatValue) Interface() any   { return float64(v) }

type stringValue string

func (v stringValue) Kind() Kind       { return KindString }
func (v stringValue) Describe() string { return strconv.Quote(string(v)) }
func (v stringValue) Interface() any   { return string(v) }

// Nil is the nil value.
var Nil Value = nilValue{}

// Bool returns a bool value.
func Bool(b bool) Value { return boolValue(b) }

// Int returns an int value.
func Int(i int64) Value { return intValue(i) }

// Float returns a float value.
func Float(f float64) Value { return floatValue(f) }

// String returns a string value.
func String(s string) Value { return stringValue(s) }

// Of wraps a Go value. Values that already implement Value are returned as is.
func Of(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Nil, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnsupportedKind, v)
	}
}
