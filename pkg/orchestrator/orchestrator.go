package orchestrator

import (
	"context"
	"fmt"

	"github.com/cperrin88/gotweak/internal/logger"
	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/cperrin88/gotweak/pkg/value"
)

// New constructs an Orchestrator. st may be nil when nothing is persisted.
func New(reg *hook.Registry, st Store, storePath string, events Events) *Orchestrator {
	o := &Orchestrator{
		Registry:    reg,
		Tweaks:      tweak.NewSet(),
		Store:       st,
		StorePath:   storePath,
		Coordinator: value.NewCoordinator(),
		Events:      events,
	}
	o.init()
	return o
}

// init fills in defaults for an Orchestrator built as a literal. Called with o.mu held.
func (o *Orchestrator) init() {
	if o.Registry == nil {
		o.Registry = hook.Default()
	}
	if o.Tweaks == nil {
		o.Tweaks = tweak.NewSet()
	}
	if o.Coordinator == nil {
		o.Coordinator = value.NewCoordinator()
	}
	if o.declared == nil {
		o.declared = make(map[method.Key]bool)
	}
	if o.values == nil {
		o.values = make(map[method.Key]*tweak.ValueTweak)
	}
	if o.sources == nil {
		o.sources = make(map[method.Key]string)
	}
	if o.log == nil {
		o.log = logger.GetLogger().With("component", "orchestrator")
	}
}

func emit(e Events, ev Event) {
	if e.OnEvent != nil {
		e.OnEvent(ev)
	}
}

// Declare adds a tweak built in code. Declared tweaks survive removal of
// their store entry. It reports false when an equal tweak is already known.
func (o *Orchestrator) Declare(t *tweak.Tweak) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	if !o.Tweaks.Add(t) {
		return false
	}
	o.declared[t.Key()] = true
	return true
}

// DeclareValue is Declare for a value tweak.
func (o *Orchestrator) DeclareValue(vt *tweak.ValueTweak) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	if !o.Tweaks.Add(vt.Tweak) {
		return false
	}
	o.declared[vt.Key()] = true
	o.values[vt.Key()] = vt
	return true
}

// Get returns the live tweak for key.
func (o *Orchestrator) Get(key method.Key) (*tweak.Tweak, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()
	return o.Tweaks.Get(key)
}

// List returns all live tweaks in presentation order.
func (o *Orchestrator) List() []*tweak.Tweak {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()
	return o.Tweaks.Sorted()
}

// Restore loads the store and merges its tweaks with the declared ones.
// Tweaks marked enabled are enabled only when RestoreEnabled is set. Errors
// for individual entries are joined; the remaining entries are still applied.
func (o *Orchestrator) Restore() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	emit(o.Events, Event{Phase: "restoring", Msg: o.StorePath})
	if err := o.load(); err != nil {
		return err
	}
	return o.apply(o.RestoreEnabled)
}

// Reconcile loads the store and brings every live tweak to its desired
// state. Tweaks whose entries were removed are disabled, and dropped unless
// declared in code.
func (o *Orchestrator) Reconcile() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	emit(o.Events, Event{Phase: "reconciling", Msg: o.StorePath})
	if err := o.load(); err != nil {
		return err
	}
	return o.apply(true)
}

// Enable enables the tweak for key and records the desired state.
func (o *Orchestrator) Enable(key method.Key) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	t, ok := o.Tweaks.Get(key)
	if !ok {
		return errors.Wrapf(errors.ErrTweakNotFound, "%s", key)
	}
	if err := o.enable(t); err != nil {
		return err
	}
	return o.persist(t)
}

// Disable disables the tweak for key and records the desired state.
func (o *Orchestrator) Disable(key method.Key) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	t, ok := o.Tweaks.Get(key)
	if !ok {
		return errors.Wrapf(errors.ErrTweakNotFound, "%s", key)
	}
	if err := o.disable(t); err != nil {
		return err
	}
	return o.persist(t)
}

// Save records every live tweak in the store. Entries for tweaks this
// process does not know are kept.
func (o *Orchestrator) Save() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	if !o.persistent() {
		return fmt.Errorf("tweak store is not configured")
	}
	if err := o.load(); err != nil {
		return err
	}
	for _, t := range o.Tweaks.Sorted() {
		o.Store.Put(o.entryFor(t))
	}

	emit(o.Events, Event{Phase: "saving", Msg: o.StorePath})
	return o.Store.Save(o.StorePath)
}

// Binding returns a cell delegate for the value tweak at key. Committed
// values are written to the store.
func (o *Orchestrator) Binding(key method.Key, list value.ListView) (*tweak.Binding, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()

	vt, ok := o.values[key]
	if !ok {
		return nil, errors.Wrapf(errors.ErrTweakNotFound, "value tweak %s", key)
	}

	b := tweak.NewBinding(vt, o.Coordinator, list)
	b.OnUpdate(func(value.Value) {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.persist(vt.Tweak); err != nil {
			o.log.Warn("failed to persist value", "key", key.String(), "error", err)
		}
	})
	return b, nil
}

// Watch reconciles whenever the store file changes, until ctx is canceled.
func (o *Orchestrator) Watch(ctx context.Context, opts WatchOptions) error {
	if o.StorePath == "" {
		return fmt.Errorf("store path is not configured")
	}

	w, err := store.NewWatcher(o.StorePath, opts.Debounce, func() {
		if err := o.Reconcile(); err != nil {
			o.log.Warn("reconcile failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.init()
	o.mu.Unlock()
	o.log.Info("watching tweak store", "path", o.StorePath)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close disables every live tweak.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.init()
	return o.Tweaks.Close()
}

func (o *Orchestrator) persistent() bool {
	return o.Store != nil && o.StorePath != ""
}

func (o *Orchestrator) load() error {
	if !o.persistent() {
		return fmt.Errorf("tweak store is not configured")
	}
	if err := o.Store.Load(o.StorePath); err != nil {
		emit(o.Events, Event{Phase: "error", Msg: err.Error()})
		return err
	}
	return nil
}

// apply merges the loaded store entries into the live set. Called with o.mu held.
func (o *Orchestrator) apply(applyEnabled bool) error {
	var errs []error
	fail := func(key method.Key, err error) {
		errs = append(errs, fmt.Errorf("%s: %w", key, err))
		emit(o.Events, Event{Phase: "error", Key: key, Msg: err.Error()})
	}

	seen := make(map[method.Key]bool)
	for _, e := range o.Store.Entries() {
		key := e.Key()
		seen[key] = true

		t, err := o.ensure(e)
		if err != nil {
			fail(key, err)
			continue
		}
		if err := o.applyReplacement(t, e); err != nil {
			fail(key, err)
			continue
		}
		if !applyEnabled || e.Enabled == t.Enabled() {
			continue
		}

		if e.Enabled {
			err = o.enable(t)
		} else {
			err = o.disable(t)
		}
		if err != nil {
			fail(key, err)
		}
	}

	if applyEnabled {
		for _, t := range o.Tweaks.Sorted() {
			key := t.Key()
			if seen[key] || o.declared[key] {
				continue
			}
			if err := o.Tweaks.Remove(key); err != nil {
				fail(key, err)
				continue
			}
			delete(o.values, key)
			delete(o.sources, key)
			emit(o.Events, Event{Phase: "disabling", Key: key, Msg: "removed from store"})
		}
	}

	emit(o.Events, Event{Phase: "done"})
	return errors.Join(errs...)
}

// ensure returns the live tweak for e, creating it when unknown.
func (o *Orchestrator) ensure(e *store.Entry) (*tweak.Tweak, error) {
	if err := e.Check(); err != nil {
		return nil, err
	}
	key := e.Key()
	if t, ok := o.Tweaks.Get(key); ok {
		return t, nil
	}

	if e.Value != nil {
		v, err := o.Coordinator.Decode(*e.Value)
		if err != nil {
			return nil, err
		}
		vt, err := tweak.NewValueTweak(o.Registry, key, v)
		if err != nil {
			return nil, err
		}
		o.values[key] = vt
		o.Tweaks.Add(vt.Tweak)
		return vt.Tweak, nil
	}

	t, err := tweak.FromRecord(o.Registry, e.Record)
	if err != nil {
		return nil, err
	}
	o.Tweaks.Add(t)
	return t, nil
}

// applyReplacement brings the tweak's replacement in line with e. Values
// apply live; a changed script reinstalls an enabled tweak.
func (o *Orchestrator) applyReplacement(t *tweak.Tweak, e *store.Entry) error {
	key := t.Key()

	if vt, ok := o.values[key]; ok {
		if e.Value == nil {
			return nil
		}
		v, err := o.Coordinator.Decode(*e.Value)
		if err != nil {
			return err
		}
		vt.SetValue(v)
		return nil
	}

	src := e.Script
	if src == "" {
		src = o.Scripts[key]
	}
	if src == "" || src == o.sources[key] {
		return nil
	}

	wrapper, err := hook.ScriptReplacement(src)
	if err != nil {
		return err
	}

	wasEnabled := t.Enabled()
	if wasEnabled {
		if err := o.disable(t); err != nil {
			return err
		}
	}
	t.Hook().SetReplacement(wrapper)
	o.sources[key] = src
	if wasEnabled {
		return o.enable(t)
	}
	return nil
}

func (o *Orchestrator) enable(t *tweak.Tweak) error {
	var failure error
	t.Enable(func(err error) { failure = err })
	if failure != nil {
		emit(o.Events, Event{Phase: "error", Key: t.Key(), Msg: failure.Error()})
		return failure
	}
	emit(o.Events, Event{Phase: "enabling", Key: t.Key()})
	return nil
}

func (o *Orchestrator) disable(t *tweak.Tweak) error {
	if err := t.Disable(); err != nil {
		emit(o.Events, Event{Phase: "error", Key: t.Key(), Msg: err.Error()})
		return err
	}
	emit(o.Events, Event{Phase: "disabling", Key: t.Key()})
	return nil
}

// entryFor returns the store entry describing t's current state, keeping
// fields this process does not own.
func (o *Orchestrator) entryFor(t *tweak.Tweak) *store.Entry {
	key := t.Key()

	e := store.NewEntry(key)
	if existing := o.Store.Find(key); existing != nil {
		copied := *existing
		e = &copied
	}
	e.Enabled = t.Enabled()
	if vt, ok := o.values[key]; ok {
		enc := o.Coordinator.Encode(vt.Value())
		e.Value = &enc
	}
	return e
}

// persist records t's state in the store when one is configured.
func (o *Orchestrator) persist(t *tweak.Tweak) error {
	if !o.persistent() {
		return nil
	}
	if err := o.load(); err != nil {
		return err
	}
	o.Store.Put(o.entryFor(t))
	return o.Store.Save(o.StorePath)
}
