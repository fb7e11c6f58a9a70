package tweak_test

import (
	"sync"
	"testing"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/cperrin88/gotweak/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T) *method.Table {
	t.Helper()
	return testutil.NewTable(t, "Foo",
		testutil.Instance("bar", "original"),
		testutil.Instance("baz", "baz"),
		testutil.Type("bar", "type bar"),
	)
}

var returning = testutil.Returning

func invoke(t *testing.T, table *method.Table) any {
	t.Helper()
	return testutil.Invoke(t, table, "Foo", "bar")
}

// failures records every error passed to a FailureFunc.
type failures struct {
	mu   sync.Mutex
	errs []error
}

func (f *failures) record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

func (f *failures) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errs)
}

func TestConstructors(t *testing.T) {
	reg := hook.NewRegistry(newTable(t))

	_, err := tweak.New(nil)
	assert.ErrorIs(t, err, errors.ErrNilHook)

	tw, err := tweak.ForInstanceMethod(reg, "", "bar")
	assert.Nil(t, tw)
	assert.ErrorIs(t, err, errors.ErrNilTarget)

	tw, err = tweak.ForInstanceMethod(reg, "Foo", "missing")
	assert.Nil(t, tw)
	assert.ErrorIs(t, err, errors.ErrUnresolvedSelector)

	tw, err = tweak.ForTypeMethod(reg, "Foo", "baz")
	assert.Nil(t, tw)
	assert.ErrorIs(t, err, errors.ErrUnresolvedSelector)

	tw, err = tweak.ForTypeMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	require.NotNil(t, tw.Hook())
	assert.Equal(t, method.Type, tw.Key().Scope)
	assert.False(t, tw.Enabled())
}

func TestEquality(t *testing.T) {
	reg := hook.NewRegistry(newTable(t))

	a, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	b, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.True(t, a.Hook().Equal(b.Hook()))
	assert.Zero(t, a.Compare(b))

	a.Hook().SetReplacement(returning("x"))
	var f failures
	a.Enable(f.record)
	require.True(t, a.Enabled())
	assert.True(t, a.Equal(b), "enabled state is not part of identity")
	require.NoError(t, a.Disable())

	c, err := tweak.ForInstanceMethod(reg, "Foo", "baz")
	require.NoError(t, err)
	d, err := tweak.ForTypeMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.False(t, a.Equal(nil))
	assert.Negative(t, a.Compare(d))
}

func TestSortKey(t *testing.T) {
	reg := hook.NewRegistry(newTable(t))

	a, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	b, err := tweak.ForTypeMethod(reg, "Foo", "bar")
	require.NoError(t, err)

	assert.Equal(t, "foo bar", a.SortKey())
	assert.Equal(t, "foo bar (class)", b.SortKey())
	assert.Equal(t, "Foo#bar [disabled]", a.String())
}

func TestEnableDisable(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	tw.Hook().SetReplacement(returning("tweaked"))
	assert.False(t, tw.Enabled())

	var f failures
	tw.Enable(f.record)
	assert.True(t, tw.Enabled())
	assert.Zero(t, f.count())
	assert.Equal(t, "tweaked", invoke(t, table))

	// Enabling again is a no-op.
	tw.Enable(f.record)
	assert.True(t, tw.Enabled())
	assert.Zero(t, f.count())

	require.NoError(t, tw.Disable())
	assert.False(t, tw.Enabled())
	assert.Equal(t, "original", invoke(t, table))
	require.NoError(t, tw.Disable())

	tw.Enable(f.record)
	assert.True(t, tw.Enabled())
	assert.Equal(t, "tweaked", invoke(t, table))
	require.NoError(t, tw.Close())
	assert.Equal(t, "original", invoke(t, table))
}

func TestEnableWithoutCallback(t *testing.T) {
	reg := hook.NewRegistry(newTable(t))

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)

	assert.NotPanics(t, func() { tw.Enable(nil) })
	assert.False(t, tw.Enabled())
}

func TestEnableFailure(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)

	var f failures
	tw.Enable(f.record)
	assert.False(t, tw.Enabled())
	require.Equal(t, 1, f.count())
	assert.ErrorIs(t, f.errs[0], errors.ErrNoReplacement)
	assert.Equal(t, "original", invoke(t, table))

	holder, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	holder.Hook().SetReplacement(returning("holder"))
	holder.Enable(nil)
	require.True(t, holder.Enabled())

	tw.Hook().SetReplacement(returning("loser"))
	tw.Enable(f.record)
	assert.False(t, tw.Enabled())
	require.Equal(t, 2, f.count())
	assert.ErrorIs(t, f.errs[1], errors.ErrSlotClaimed)
	assert.Equal(t, "holder", invoke(t, table))
}

func TestDisableStale(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	tw.Hook().SetReplacement(returning("tweaked"))
	tw.Enable(nil)
	require.True(t, tw.Enabled())

	// Someone outside the registry changes the slot.
	require.NoError(t, table.Define("Foo", "bar", method.Instance, func(any, ...any) (any, error) {
		return "redefined", nil
	}))

	err = tw.Disable()
	assert.ErrorIs(t, err, errors.ErrStaleOriginal)
	assert.True(t, tw.Enabled())
	assert.Equal(t, "redefined", invoke(t, table))
}

func TestConcurrentEnableSameMethod(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	const n = 2
	tweaks := make([]*tweak.Tweak, n)
	fails := make([]*failures, n)
	for i := range tweaks {
		tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
		require.NoError(t, err)
		tw.Hook().SetReplacement(returning(i))
		tweaks[i] = tw
		fails[i] = &failures{}
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range tweaks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tweaks[i].Enable(fails[i].record)
		}(i)
	}
	close(start)
	wg.Wait()

	winner := -1
	for i, tw := range tweaks {
		if tw.Enabled() {
			require.Equal(t, -1, winner, "only one tweak may hold the method")
			winner = i
			assert.Zero(t, fails[i].count())
		} else {
			require.Equal(t, 1, fails[i].count())
			assert.ErrorIs(t, fails[i].errs[0], errors.ErrSlotClaimed)
		}
	}
	require.NotEqual(t, -1, winner)
	assert.Equal(t, winner, invoke(t, table))
}

func TestConcurrentToggleSameTweak(t *testing.T) {
	table := newTable(t)
	reg := hook.NewRegistry(table)

	tw, err := tweak.ForInstanceMethod(reg, "Foo", "bar")
	require.NoError(t, err)
	tw.Hook().SetReplacement(returning("tweaked"))

	var f failures
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				tw.Enable(f.record)
				return
			}
			assert.NoError(t, tw.Disable())
		}(i)
	}
	wg.Wait()

	assert.Zero(t, f.count())
	require.NoError(t, tw.Disable())
	assert.Equal(t, "original", invoke(t, table))
	assert.Empty(t, reg.ActiveKeys())
}
