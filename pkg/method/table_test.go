package method_test

import (
	"fmt"
	"testing"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFooTable(t *testing.T) *method.Table {
	t.Helper()
	table := method.NewTable()
	require.NoError(t, table.DefineClass("Foo", ""))
	require.NoError(t, table.Define("Foo", "bar", method.Instance, func(recv any, _ ...any) (any, error) {
		return fmt.Sprintf("bar(%v)", recv), nil
	}))
	require.NoError(t, table.Define("Foo", "shared", method.Type, func(recv any, _ ...any) (any, error) {
		return "shared:" + recv.(string), nil
	}))
	return table
}

func TestDefineClass(t *testing.T) {
	table := method.NewTable()

	require.NoError(t, table.DefineClass("Base", ""))
	assert.True(t, table.HasClass("Base"))

	err := table.DefineClass("Base", "")
	assert.ErrorIs(t, err, errors.ErrClassExists)

	err = table.DefineClass("Child", "Missing")
	assert.ErrorIs(t, err, errors.ErrClassNotFound)
	assert.False(t, table.HasClass("Child"))

	err = table.DefineClass("Outer#Inner", "")
	assert.ErrorIs(t, err, errors.ErrInvalidKey)
	assert.False(t, table.HasClass("Outer#Inner"))
}

func TestInvoke(t *testing.T) {
	table := newFooTable(t)

	out, err := table.Invoke("Foo", "bar", 1)
	require.NoError(t, err)
	assert.Equal(t, "bar(1)", out)

	out, err = table.InvokeType("Foo", "shared")
	require.NoError(t, err)
	assert.Equal(t, "shared:Foo", out)

	_, err = table.Invoke("Foo", "missing", 1)
	assert.ErrorIs(t, err, errors.ErrMethodNotFound)

	_, err = table.Invoke("Nope", "bar", 1)
	assert.ErrorIs(t, err, errors.ErrClassNotFound)

	// Scopes are distinct slots.
	_, err = table.InvokeType("Foo", "bar")
	assert.ErrorIs(t, err, errors.ErrMethodNotFound)
}

func TestResolvesWalksSuperclasses(t *testing.T) {
	table := newFooTable(t)
	require.NoError(t, table.DefineClass("SubFoo", "Foo"))

	assert.True(t, table.Resolves(method.NewKey("SubFoo", "bar", method.Instance)))
	assert.True(t, table.Resolves(method.NewKey("SubFoo", "shared", method.Type)))
	assert.False(t, table.Resolves(method.NewKey("SubFoo", "bar", method.Type)))
	assert.False(t, table.Resolves(method.NewKey("Other", "bar", method.Instance)))

	out, err := table.Invoke("SubFoo", "bar", "x")
	require.NoError(t, err)
	assert.Equal(t, "bar(x)", out)
}

func TestSwapAndRestore(t *testing.T) {
	table := newFooTable(t)
	key := method.NewKey("Foo", "bar", method.Instance)

	orig, err := table.Swap(key, func(original method.Impl) method.Impl {
		return func(recv any, args ...any) (any, error) {
			out, err := original(recv, args...)
			return fmt.Sprintf("hooked %v", out), err
		}
	})
	require.NoError(t, err)
	assert.Equal(t, key, orig.Key())

	out, err := table.Invoke("Foo", "bar", 2)
	require.NoError(t, err)
	assert.Equal(t, "hooked bar(2)", out)

	require.NoError(t, table.Restore(orig))

	out, err = table.Invoke("Foo", "bar", 2)
	require.NoError(t, err)
	assert.Equal(t, "bar(2)", out)

	// A second restore finds the slot no longer holds the replacement.
	assert.ErrorIs(t, table.Restore(orig), errors.ErrStaleOriginal)
}

func TestSwapInheritedMethod(t *testing.T) {
	table := newFooTable(t)
	require.NoError(t, table.DefineClass("SubFoo", "Foo"))
	key := method.NewKey("SubFoo", "bar", method.Instance)

	orig, err := table.Swap(key, func(original method.Impl) method.Impl {
		return func(recv any, args ...any) (any, error) {
			out, _ := original(recv, args...)
			return "sub " + out.(string), nil
		}
	})
	require.NoError(t, err)

	out, err := table.Invoke("SubFoo", "bar", 3)
	require.NoError(t, err)
	assert.Equal(t, "sub bar(3)", out)

	// The superclass is untouched.
	out, err = table.Invoke("Foo", "bar", 3)
	require.NoError(t, err)
	assert.Equal(t, "bar(3)", out)

	require.NoError(t, table.Restore(orig))
	out, err = table.Invoke("SubFoo", "bar", 3)
	require.NoError(t, err)
	assert.Equal(t, "bar(3)", out)
}

func TestSwapRefusesClaimedSlot(t *testing.T) {
	table := newFooTable(t)
	key := method.NewKey("Foo", "bar", method.Instance)
	passthrough := func(original method.Impl) method.Impl { return original }

	first, err := table.Swap(key, passthrough)
	require.NoError(t, err)

	second, err := table.Swap(key, passthrough)
	assert.ErrorIs(t, err, errors.ErrSlotClaimed)
	assert.Nil(t, second)

	require.NoError(t, table.Restore(first))
	assert.ErrorIs(t, table.Restore(first), errors.ErrStaleOriginal, "a handle restores once")

	second, err = table.Swap(key, passthrough)
	require.NoError(t, err)
	require.NoError(t, table.Restore(second))
}

func TestSwapInheritedOverrideIsClaimed(t *testing.T) {
	table := newFooTable(t)
	require.NoError(t, table.DefineClass("SubFoo", "Foo"))
	key := method.NewKey("SubFoo", "bar", method.Instance)
	passthrough := func(original method.Impl) method.Impl { return original }

	orig, err := table.Swap(key, passthrough)
	require.NoError(t, err)

	_, err = table.Swap(key, passthrough)
	assert.ErrorIs(t, err, errors.ErrSlotClaimed)

	// The superclass slot is a different method and stays free.
	base, err := table.Swap(method.NewKey("Foo", "bar", method.Instance), passthrough)
	require.NoError(t, err)

	require.NoError(t, table.Restore(orig))
	require.NoError(t, table.Restore(base))
}

func TestRedefineMakesOriginalStale(t *testing.T) {
	table := newFooTable(t)
	key := method.NewKey("Foo", "bar", method.Instance)

	orig, err := table.Swap(key, func(original method.Impl) method.Impl { return original })
	require.NoError(t, err)

	require.NoError(t, table.Define("Foo", "bar", method.Instance, func(any, ...any) (any, error) {
		return "redefined", nil
	}))

	assert.ErrorIs(t, table.Restore(orig), errors.ErrStaleOriginal)

	out, err := table.Invoke("Foo", "bar", nil)
	require.NoError(t, err)
	assert.Equal(t, "redefined", out)

	// Redefinition released the claim.
	again, err := table.Swap(key, func(original method.Impl) method.Impl { return original })
	require.NoError(t, err)
	require.NoError(t, table.Restore(again))
}

func TestSwapErrors(t *testing.T) {
	table := newFooTable(t)

	_, err := table.Swap(method.NewKey("Foo", "missing", method.Instance), func(o method.Impl) method.Impl { return o })
	assert.ErrorIs(t, err, errors.ErrMethodNotFound)

	_, err = table.Swap(method.NewKey("Nope", "bar", method.Instance), func(o method.Impl) method.Impl { return o })
	assert.ErrorIs(t, err, errors.ErrClassNotFound)

	_, err = table.Swap(method.NewKey("Foo", "bar", method.Instance), nil)
	assert.ErrorIs(t, err, errors.ErrNilImplementation)

	_, err = table.Swap(method.NewKey("Foo", "bar", method.Instance), func(method.Impl) method.Impl { return nil })
	assert.ErrorIs(t, err, errors.ErrNilImplementation)

	// Failed swaps leave the method alone.
	out, err := table.Invoke("Foo", "bar", 4)
	require.NoError(t, err)
	assert.Equal(t, "bar(4)", out)

	assert.ErrorIs(t, table.Restore(nil), errors.ErrStaleOriginal)
}
