// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/method"
)

// Method describes a method defined by DefineClass. The implementation
// returns Result.
type Method struct {
	Selector method.Selector
	Scope    method.Scope
	Result   any
}

// Instance is shorthand for an instance Method returning result.
func Instance(sel method.Selector, result any) Method {
	return Method{Selector: sel, Scope: method.Instance, Result: result}
}

// Type is shorthand for a class Method returning result.
func Type(sel method.Selector, result any) Method {
	return Method{Selector: sel, Scope: method.Type, Result: result}
}

// NewTable returns a table with class defined by methods.
func NewTable(t *testing.T, class string, methods ...Method) *method.Table {
	t.Helper()
	table := method.NewTable()
	DefineClass(t, table, class, "", methods...)
	return table
}

// DefineClass defines class on table, optionally below super, and its methods.
func DefineClass(t *testing.T, table *method.Table, class, super string, methods ...Method) {
	t.Helper()
	require.NoError(t, table.DefineClass(class, super))
	for _, m := range methods {
		require.NoError(t, table.Define(class, m.Selector, m.Scope, Returning(m.Result)(nil)))
	}
}

// Returning is a replacement that ignores the original and returns v.
func Returning(v any) method.Wrapper {
	return func(method.Impl) method.Impl {
		return func(any, ...any) (any, error) { return v, nil }
	}
}

// Invoke calls the instance method sel of class and fails the test on error.
func Invoke(t *testing.T, table *method.Table, class string, sel method.Selector) any {
	t.Helper()
	out, err := table.Invoke(class, sel, struct{}{})
	require.NoError(t, err)
	return out
}

// QuietLogs discards log output until the test ends.
func QuietLogs(t *testing.T) {
	t.Helper()
	logger.SetTestOutput(io.Discard)
	t.Cleanup(logger.UnsetTestOutput)
}
