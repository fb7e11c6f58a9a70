// Package store provides a JSON-backed store for persisted tweaks.
//
// The store holds the desired state of every known tweak: its identity, whether
// it should be enabled, and optionally a replacement script or value. It is
// written by the command line tool and read by processes that host tweaks.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/fsutil"
	"github.com/cperrin88/gotweak/pkg/method"
	"github.com/cperrin88/gotweak/pkg/tweak"
	"github.com/cperrin88/gotweak/pkg/value"
	"github.com/hashicorp/go-version"
)

const (
	// FormatVersion is the store format written by Save.
	FormatVersion = "1"

	// SupportedFormats is the range of store formats Load accepts.
	SupportedFormats = ">= 1, < 2"

	// InitialEntryCapacity defines the initial slice capacity for entries.
	InitialEntryCapacity = 32
)

var supportedFormats = version.MustConstraints(version.NewConstraint(SupportedFormats))

// Entry is one persisted tweak.
type Entry struct {
	tweak.Record

	// Enabled is the desired state.
	Enabled bool `json:"enabled"`

	// Value, when set, makes the tweak a value tweak returning it.
	Value *value.Encoded `json:"value,omitempty"`

	// Script is Tengo source used as the replacement.
	Script string `json:"script,omitempty"`

	AddedAt time.Time `json:"added_at"`
}

// NewEntry returns a disabled entry for key.
func NewEntry(key method.Key) *Entry {
	return &Entry{Record: tweak.RecordFor(key)}
}

// Manager defines the interface for managing persisted tweaks.
type Manager interface {
	Load(path string) error
	Save(path string) error
	Find(key method.Key) *Entry
	Put(entry *Entry)
	Remove(key method.Key) bool
	SetEnabled(key method.Key, enabled bool) error
	Entries() []*Entry
	Filtered(filter string) []*Entry
}

// Store represents the persisted tweak list.
type Store struct {
	FormatVersion string    `json:"format_version"`
	LastUpdate    time.Time `json:"last_update"`
	Tweaks        []*Entry  `json:"tweaks"`
	rwMutex       sync.RWMutex
}

var _ Manager = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		FormatVersion: FormatVersion,
		LastUpdate:    time.Now(),
		Tweaks:        make([]*Entry, 0, InitialEntryCapacity),
	}
}

// Open creates a store and loads path into it.
func Open(path string) (*Store, error) {
	s := New()
	if err := s.Load(path); err != nil {
		return nil, err
	}
	return s, nil
}

func cleanPath(path string) (string, error) {
	clean := filepath.Clean(path)
	if path == "" || !filepath.IsAbs(clean) {
		return "", fmt.Errorf("store path must be absolute: %q: %w", path, errors.ErrInvalidPath)
	}
	return clean, nil
}

// Load replaces the store's contents with the file at path. A missing file
// leaves the store empty.
func (s *Store) Load(path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}

	file, err := os.Open(clean)
	if os.IsNotExist(err) {
		s.reset(New())
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open store file: %w", err)
	}
	defer func() { _ = file.Close() }()

	loaded, err := parse(file)
	if err != nil {
		return err
	}
	s.reset(loaded)
	return nil
}

func (s *Store) reset(from *Store) {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()
	s.FormatVersion = from.FormatVersion
	s.LastUpdate = from.LastUpdate
	s.Tweaks = from.Tweaks
}

// Save writes the store to path atomically.
func (s *Store) Save(path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}

	s.rwMutex.RLock()
	data, err := json.MarshalIndent(s, "", "  ")
	s.rwMutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal store to JSON: %w", err)
	}

	return fsutil.WriteFileAtomic(clean, data, fsutil.FileModeDefault)
}

// Find returns the entry for key, or nil.
func (s *Store) Find(key method.Key) *Entry {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	return s.find(key)
}

func (s *Store) find(key method.Key) *Entry {
	for _, e := range s.Tweaks {
		if e.Key() == key {
			return e
		}
	}
	return nil
}

// Put adds entry, replacing any entry with the same key.
func (s *Store) Put(entry *Entry) {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	if entry.Version == "" {
		entry.Version = tweak.RecordVersion
	}
	s.LastUpdate = time.Now()

	for i, existing := range s.Tweaks {
		if existing.Key() == entry.Key() {
			if entry.AddedAt.IsZero() {
				entry.AddedAt = existing.AddedAt
			}
			s.Tweaks[i] = entry
			return
		}
	}

	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now()
	}
	s.Tweaks = append(s.Tweaks, entry)
}

// Remove removes the entry for key and reports whether it existed.
func (s *Store) Remove(key method.Key) bool {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	for i, e := range s.Tweaks {
		if e.Key() == key {
			s.Tweaks = append(s.Tweaks[:i], s.Tweaks[i+1:]...)
			s.LastUpdate = time.Now()
			return true
		}
	}
	return false
}

// SetEnabled updates the desired state of the entry for key.
func (s *Store) SetEnabled(key method.Key, enabled bool) error {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	e := s.find(key)
	if e == nil {
		return fmt.Errorf("tweak %s not found: %w", key, errors.ErrTweakNotFound)
	}
	e.Enabled = enabled
	s.LastUpdate = time.Now()
	return nil
}

// Entries returns all entries in key order.
func (s *Store) Entries() []*Entry {
	s.rwMutex.RLock()
	entries := make([]*Entry, len(s.Tweaks))
	copy(entries, s.Tweaks)
	s.rwMutex.RUnlock()

	slices.SortFunc(entries, func(a, b *Entry) int {
		return method.Compare(a.Key(), b.Key())
	})
	return entries
}

// Filtered returns entries whose key contains filter, case-insensitively.
func (s *Store) Filtered(filter string) []*Entry {
	entries := s.Entries()
	if filter == "" {
		return entries
	}

	filter = strings.ToLower(filter)
	filtered := entries[:0]
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Key().String()), filter) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// parse reads a store from r and checks its format version.
func parse(r io.Reader) (*Store, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}

	loaded := &Store{}
	if err := json.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("failed to parse store: %w", err)
	}
	if loaded.Tweaks == nil {
		loaded.Tweaks = make([]*Entry, 0, InitialEntryCapacity)
	}

	v, err := version.NewVersion(loaded.FormatVersion)
	if err != nil {
		return nil, fmt.Errorf("store format %q: %w", loaded.FormatVersion, errors.ErrUnsupportedVersion)
	}
	if !supportedFormats.Check(v) {
		return nil, fmt.Errorf("store format %s (supported %s): %w", v, SupportedFormats, errors.ErrUnsupportedVersion)
	}
	return loaded, nil
}
