package store

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/gotweak/pkg/errors"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tweaks.json")

	var calls atomic.Int32
	w, err := NewWatcher(path, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	s := New()
	s.Put(NewEntry(fooBar))
	require.NoError(t, s.Save(path))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := calls.Load()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(path))
	}
	assert.Eventually(t, func() bool { return calls.Load() > before }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	// Stop after Run returned is a no-op.
	w.Stop()
}

func TestWatcherInvalidPath(t *testing.T) {
	_, err := NewWatcher("relative.json", 0, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidPath)

	_, err = NewWatcher(filepath.Join(t.TempDir(), "missing", "tweaks.json"), 0, nil)
	assert.Error(t, err)
}
