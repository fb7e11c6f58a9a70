package tweak_test

import (
	"testing"

	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/cperrin88/gotweak/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingList struct {
	reloads int
}

func (l *countingList) ReloadData() { l.reloads++ }

type focus struct {
	resigned bool
}

func (f *focus) ResignFocus() bool {
	f.resigned = true
	return true
}

func TestValueTweak(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	vt, err := tweak.NewValueTweak(reg, method.NewKey("Foo", "bar", method.Instance), value.Int(3))
	require.NoError(t, err)
	assert.Equal(t, value.Int(3), vt.Value())

	vt.Enable(nil)
	require.True(t, vt.Enabled())
	assert.Equal(t, int64(3), invoke(t, table))

	vt.SetValue(value.String("live"))
	assert.Equal(t, "live", invoke(t, table))

	vt.SetValue(nil)
	assert.Equal(t, value.Nil, vt.Value())
	assert.Nil(t, invoke(t, table))

	require.NoError(t, vt.Disable())
	assert.Equal(t, "original", invoke(t, table))

	_, err = tweak.NewValueTweak(reg, method.NewKey("Foo", "gone", method.Instance), value.Nil)
	assert.Error(t, err)
}

func TestBinding(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	vt, err := tweak.NewValueTweak(reg, method.NewKey("Foo", "bar", method.Instance), value.Bool(false))
	require.NoError(t, err)
	vt.Enable(nil)

	list := &countingList{}
	b := tweak.NewBinding(vt, nil, list)
	require.NotNil(t, b.Coordinator())
	assert.Same(t, list, b.ListView())
	assert.Same(t, vt, b.Tweak())

	var persisted []value.Value
	b.OnUpdate(func(v value.Value) { persisted = append(persisted, v) })

	cell := &value.TextCell{}
	b.Bind(cell)
	assert.Equal(t, "false", cell.Text())

	require.NoError(t, cell.Commit("true"))
	assert.Equal(t, value.Bool(true), vt.Value())
	assert.Equal(t, true, invoke(t, table))
	assert.Equal(t, 1, list.reloads)
	require.Len(t, persisted, 1)

	first := &focus{}
	second := &focus{}
	b.SetCurrentResponder(first)
	assert.Same(t, first, b.CurrentResponder())
	b.SetCurrentResponder(second)
	assert.True(t, first.resigned)
	assert.False(t, second.resigned)

	require.NoError(t, vt.Close())
}
