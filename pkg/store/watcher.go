package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for more changes before
// calling its handler.
const DefaultDebounce = 100 * time.Millisecond

// ChangeHandler is called once per debounced batch of changes to the store file.
type ChangeHandler func()

// Watcher watches a store file for changes.
//
// The file's directory is watched rather than the file itself, because Save
// replaces the file by renaming a temporary file over it. The handler is
// called from a single goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	handler  ChangeHandler
	debounce time.Duration
	log      *slog.Logger

	changes  chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the store file at path. A debounce of
// zero uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, handler ChangeHandler) (*Watcher, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(clean)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(clean), err)
	}

	return &Watcher{
		path:     clean,
		watcher:  fw,
		handler:  handler,
		debounce: debounce,
		log:      logger.GetLogger().With("component", "store-watcher", "path", clean),
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Run processes events until ctx is canceled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Stop()

	go w.debounceLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.log.Debug("store changed", "op", event.Op.String())
			select {
			case w.changes <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

// debounceLoop calls the handler once the debounce window passes without
// further changes.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if w.handler != nil {
				w.handler()
			}
		}
	}
}
