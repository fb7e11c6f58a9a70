package tweak

import (
	"sync"
	"sync/atomic"

	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/value"
)

type valueBox struct {
	v value.Value
}

// ValueTweak is a tweak whose replacement returns an editable value. The
// replacement reads the value on every call, so SetValue takes effect
// immediately without toggling the tweak.
type ValueTweak struct {
	*Tweak
	current atomic.Pointer[valueBox]
}

// NewValueTweak creates a value tweak for key returning initial while enabled.
func NewValueTweak(reg *hook.Registry, key method.Key, initial value.Value) (*ValueTweak, error) {
	h, err := reg.Hook(key)
	if err != nil {
		return nil, err
	}
	t, err := New(h)
	if err != nil {
		return nil, err
	}

	vt := &ValueTweak{Tweak: t}
	vt.SetValue(initial)
	h.SetReplacement(func(method.Impl) method.Impl {
		return func(any, ...any) (any, error) {
			return vt.Value().Interface(), nil
		}
	})
	return vt, nil
}

// Value returns the value the replacement returns.
func (vt *ValueTweak) Value() value.Value {
	return vt.current.Load().v
}

// SetValue replaces the returned value. nil means value.Nil.
func (vt *ValueTweak) SetValue(v value.Value) {
	if v == nil {
		v = value.Nil
	}
	vt.current.Store(&valueBox{v: v})
}

// Binding connects a ValueTweak to value cells. It implements
// value.CellDelegate and relays committed edits into the tweak.
type Binding struct {
	tweak       *ValueTweak
	coordinator *value.Coordinator
	list        value.ListView

	mu        sync.Mutex
	responder value.Responder
	onUpdate  func(value.Value)
}

var _ value.CellDelegate = (*Binding)(nil)

// NewBinding binds vt. list may be nil.
func NewBinding(vt *ValueTweak, coordinator *value.Coordinator, list value.ListView) *Binding {
	if coordinator == nil {
		coordinator = value.NewCoordinator()
	}
	return &Binding{tweak: vt, coordinator: coordinator, list: list}
}

// Bind makes b the delegate of cell and shows the tweak's value in it.
func (b *Binding) Bind(cell value.Cell) {
	cell.SetDelegate(b)
	cell.DescribeValue(b.tweak.Value())
}

// OnUpdate registers fn to run after each committed value, e.g. to persist it.
func (b *Binding) OnUpdate(fn func(value.Value)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onUpdate = fn
}

// Tweak returns the bound tweak.
func (b *Binding) Tweak() *ValueTweak {
	return b.tweak
}

// CurrentResponder implements value.CellDelegate.
func (b *Binding) CurrentResponder() value.Responder {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.responder
}

// SetCurrentResponder implements value.CellDelegate. The previous responder
// is asked to resign first.
func (b *Binding) SetCurrentResponder(r value.Responder) {
	b.mu.Lock()
	prev := b.responder
	b.responder = r
	b.mu.Unlock()

	if prev != nil && prev != r {
		prev.ResignFocus()
	}
}

// Coordinator implements value.CellDelegate.
func (b *Binding) Coordinator() *value.Coordinator {
	return b.coordinator
}

// ListView implements value.CellDelegate.
func (b *Binding) ListView() value.ListView {
	return b.list
}

// DidUpdateValue implements value.CellDelegate.
func (b *Binding) DidUpdateValue(v value.Value) {
	b.tweak.SetValue(v)

	b.mu.Lock()
	fn := b.onUpdate
	b.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	if b.list != nil {
		b.list.ReloadData()
	}
}
