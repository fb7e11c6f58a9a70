package value

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cperrin88/gotweak/pkg/errors"
)

// ParseFunc turns edited text into a Value.
type ParseFunc func(text string) (Value, error)

// Encoded is the persisted form of a Value.
type Encoded struct {
	Kind Kind   `json:"kind" yaml:"kind"`
	Text string `json:"text" yaml:"text"`
}

// String renders the encoded value as kind:text.
func (e Encoded) String() string {
	return string(e.Kind) + ":" + e.Text
}

// Coordinator produces Values from text for the kinds it knows about.
type Coordinator struct {
	mu      sync.RWMutex
	parsers map[Kind]ParseFunc
}

// NewCoordinator returns a coordinator that knows the built-in kinds.
func NewCoordinator() *Coordinator {
	c := &Coordinator{parsers: make(map[Kind]ParseFunc)}
	c.Register(KindNil, parseNil)
	c.Register(KindBool, parseBool)
	c.Register(KindInt, parseInt)
	c.Register(KindFloat, parseFloat)
	c.Register(KindString, parseString)
	return c
}

// Register adds or replaces the parser for kind.
func (c *Coordinator) Register(kind Kind, fn ParseFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsers[kind] = fn
}

// Knows reports whether kind has a parser.
func (c *Coordinator) Knows(kind Kind) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.parsers[kind]
	return ok
}

// Parse converts text to a Value of the given kind.
func (c *Coordinator) Parse(kind Kind, text string) (Value, error) {
	c.mu.RLock()
	fn, ok := c.parsers[kind]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedKind, kind)
	}
	return fn(text)
}

// ParseSpec parses "kind:text", e.g. "int:42" or `string:"hi"`.
func (c *Coordinator) ParseSpec(spec string) (Value, error) {
	kind, text, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("%w: expected kind:text, got %q", errors.ErrInvalidValue, spec)
	}
	return c.Parse(Kind(kind), text)
}

// Encode returns the persisted form of v.
func (c *Coordinator) Encode(v Value) Encoded {
	if v == nil {
		v = Nil
	}
	return Encoded{Kind: v.Kind(), Text: v.Describe()}
}

// Decode restores a Value written by Encode.
func (c *Coordinator) Decode(e Encoded) (Value, error) {
	return c.Parse(e.Kind, e.Text)
}

func parseNil(text string) (Value, error) {
	switch strings.TrimSpace(text) {
	case "", "nil":
		return Nil, nil
	default:
		return nil, fmt.Errorf("%w: %q is not nil", errors.ErrInvalidValue, text)
	}
}

func parseBool(text string) (Value, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidValue, err)
	}
	return Bool(b), nil
}

// parseInt reads decimal integers. The 0x, 0o and 0b prefixes select hex,
// octal and binary; a bare leading zero stays decimal.
func parseInt(text string) (Value, error) {
	text = strings.TrimSpace(text)
	base := 10
	digits := strings.TrimLeft(text, "+-")
	if len(digits) > 1 && digits[0] == '0' && strings.ContainsRune("xXoObB", rune(digits[1])) {
		base = 0
	}
	i, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidValue, err)
	}
	return Int(i), nil
}

func parseFloat(text string) (Value, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidValue, err)
	}
	return Float(f), nil
}

// parseString accepts Go-quoted text, or raw text when it is not quoted.
func parseString(text string) (Value, error) {
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		s, err := strconv.Unquote(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrInvalidValue, err)
		}
		return String(s), nil
	}
	return String(text), nil
}
