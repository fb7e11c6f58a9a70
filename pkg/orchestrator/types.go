//go:generate mockgen -destination=./mocks/orchestrator.go . Store

package orchestrator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cperrin88/gotweak/pkg/hook"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/store"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/cperrin88/gotweak/pkg/value"
)

// Store is the subset of the tweak store used by the orchestrator.
type Store interface {
	Load(path string) error
	Save(path string) error
	Find(key method.Key) *store.Entry
	Put(entry *store.Entry)
	Remove(key method.Key) bool
	Entries() []*store.Entry
}

// Orchestrator ties the hook registry, the live tweak set and the persisted
// store together. Operations on one orchestrator are serialized.
type Orchestrator struct {
	Registry    *hook.Registry
	Tweaks      *tweak.Set
	Store       Store
	StorePath   string
	Scripts     map[method.Key]string // replacement sources by key, e.g. from hook.LoadScriptsFromDir
	Coordinator *value.Coordinator
	Events      Events // Events for progress notifications

	// RestoreEnabled re-enables tweaks that were enabled when the store was
	// saved. Without it restored tweaks start disabled.
	RestoreEnabled bool

	mu       sync.Mutex
	declared map[method.Key]bool
	values   map[method.Key]*tweak.ValueTweak
	sources  map[method.Key]string
	log      *slog.Logger
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // restoring|enabling|disabling|reconciling|saving|done|error
	Key   method.Key
	Msg   string
}

// Events carries callbacks for progress events.
type Events struct {
	OnEvent func(Event)
}

// WatchOptions control Watch.
type WatchOptions struct {
	Debounce time.Duration
}
