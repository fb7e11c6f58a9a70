package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/gotweak/pkg/config"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
	fixtures "github.com/cperrin88/gotweak/test/testutil"
)

func TestSetup(t *testing.T) {
	f := newFixture(t)
	scriptsDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(scriptsDir, hook.ScriptFileName(fooBar)),
		[]byte(`result = "from dir"`), 0o644))

	e := store.NewEntry(fooBar)
	e.Enabled = true
	f.write(t, e)

	promReg := prometheus.NewRegistry()
	o, err := Setup(f.table, config.Settings{
		StorePath:      f.path,
		ScriptsDir:     scriptsDir,
		RestoreEnabled: true,
		Metrics:        true,
	}, promReg, Events{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Registry.Close() })

	tw, ok := o.Get(fooBar)
	require.True(t, ok)
	assert.True(t, tw.Enabled())
	assert.Equal(t, "from dir", f.invoke(t, "bar"))

	count, err := testutil.GatherAndCount(promReg, "gotweak_hook_installs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetup_WithoutStore(t *testing.T) {
	f := newFixture(t)

	o, err := Setup(f.table, config.Settings{ScriptsDir: filepath.Join(t.TempDir(), "missing")}, nil, Events{})
	require.NoError(t, err)
	assert.Empty(t, o.List())
	assert.Empty(t, o.Scripts)
}

func TestSetup_MetricsAlreadyRegistered(t *testing.T) {
	f := newFixture(t)
	promReg := prometheus.NewRegistry()
	s := config.Settings{Metrics: true}

	o, err := Setup(f.table, s, promReg, Events{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Registry.Close() })

	_, err = Setup(f.table, s, promReg, Events{})
	assert.Error(t, err)
}

func TestSetup_DefaultTableUsesDefaultRegistry(t *testing.T) {
	table := method.DefaultTable()
	if !table.HasClass("SetupFoo") {
		fixtures.DefineClass(t, table, "SetupFoo", "", fixtures.Instance("bar", "original"))
	}
	key := method.NewKey("SetupFoo", "bar", method.Instance)

	o, err := Setup(nil, config.Settings{}, nil, Events{})
	require.NoError(t, err)
	assert.Same(t, hook.Default(), o.Registry)

	o2, err := Setup(table, config.Settings{}, nil, Events{})
	require.NoError(t, err)
	assert.Same(t, hook.Default(), o2.Registry)

	a, err := hook.Default().Hook(key)
	require.NoError(t, err)
	a.SetReplacement(fixtures.Returning("A"))
	b, err := o.Registry.Hook(key)
	require.NoError(t, err)
	b.SetReplacement(fixtures.Returning("B"))

	require.NoError(t, a.Install())
	t.Cleanup(func() { _ = a.Uninstall() })
	assert.ErrorIs(t, b.Install(), errors.ErrSlotClaimed)
	assert.Equal(t, "A", fixtures.Invoke(t, table, "SetupFoo", "bar"))

	require.NoError(t, a.Uninstall())
	assert.Equal(t, "original", fixtures.Invoke(t, table, "SetupFoo", "bar"))
}
