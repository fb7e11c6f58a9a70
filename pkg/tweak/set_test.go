package tweak_test

import (
	"testing"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	bar, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	dup, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	baz, err := tweak.ForInstanceMethod(reg, "Foo", "baz")
	require.NoError(t, err)
	typ, err := tweak.ForTypeMethod(reg, "Foo", "bar")
	require.NoError(t, err)

	s := tweak.NewSet()
	assert.True(t, s.Add(baz))
	assert.True(t, s.Add(typ))
	assert.True(t, s.Add(bar))
	assert.False(t, s.Add(dup))
	assert.False(t, s.Add(nil))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(dup))

	got, ok := s.Get(dup.Key())
	require.True(t, ok)
	assert.Same(t, bar, got)

	sorted := s.Sorted()
	require.Len(t, sorted, 3)
	assert.Same(t, bar, sorted[0])
	assert.Same(t, typ, sorted[1])
	assert.Same(t, baz, sorted[2])

	bar.Hook().SetReplacement(returning("tweaked"))
	bar.Enable(nil)
	require.True(t, bar.Enabled())

	require.NoError(t, s.Remove(bar.Key()))
	assert.False(t, bar.Enabled())
	assert.Equal(t, "original", invoke(t, table))
	assert.Equal(t, 2, s.Len())

	assert.ErrorIs(t, s.Remove(bar.Key()), errors.ErrTweakNotFound)
}

func TestSetRemoveStale(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	tw.Hook().SetReplacement(returning("tweaked"))
	tw.Enable(nil)

	s := tweak.NewSet()
	s.Add(tw)

	require.NoError(t, table.Define("Foo", "bar", method.Instance, func(any, ...any) (any, error) {
		return "redefined", nil
	}))

	assert.ErrorIs(t, s.Remove(tw.Key()), errors.ErrStaleOriginal)
	assert.True(t, s.Contains(tw))
}

func TestSetMergeAndClose(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	a := tweak.NewSet()
	b := tweak.NewSet()

	bar, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	bar.Hook().SetReplacement(returning("tweaked"))
	baz, err := tweak.ForInstanceMethod(reg, "Foo", "baz")
	require.NoError(t, err)
	dup, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)

	a.Add(bar)
	b.Add(dup)
	b.Add(baz)

	assert.Equal(t, 1, a.Merge(b))
	assert.Equal(t, 2, a.Len())
	got, _ := a.Get(bar.Key())
	assert.Same(t, bar, got)

	bar.Enable(nil)
	require.True(t, bar.Enabled())
	require.NoError(t, a.Close())
	assert.False(t, bar.Enabled())
	assert.Equal(t, 2, a.Len())
}
