package tweak

import (
	"slices"
	"sync"

	"github.com/cperrin88/gotweak/pkg/errors"
	"github.com/cperrin88/gotweak/pkg/method"
)

// Set is a collection of tweaks with at most one tweak per method key.
type Set struct {
	mu     sync.RWMutex
	tweaks map[method.Key]*Tweak
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{tweaks: make(map[method.Key]*Tweak)}
}

// Add inserts t unless an equal tweak is already present. It reports whether
// t was added; on false the existing tweak is kept.
func (s *Set) Add(t *Tweak) bool {
	if t == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tweaks[t.Key()]; exists {
		return false
	}
	s.tweaks[t.Key()] = t
	return true
}

// Get returns the tweak for key.
func (s *Set) Get(key method.Key) (*Tweak, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tweaks[key]
	return t, ok
}

// Contains reports whether a tweak equal to t is present.
func (s *Set) Contains(t *Tweak) bool {
	if t == nil {
		return false
	}
	_, ok := s.Get(t.Key())
	return ok
}

// Remove disables and removes the tweak for key. If disabling fails the
// tweak stays in the set.
func (s *Set) Remove(key method.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweaks[key]
	if !ok {
		return errors.Wrapf(errors.ErrTweakNotFound, "%s", key)
	}
	if err := t.Close(); err != nil {
		return err
	}
	delete(s.tweaks, key)
	return nil
}

// Len returns the number of tweaks.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tweaks)
}

// Sorted returns the tweaks in presentation order.
func (s *Set) Sorted() []*Tweak {
	s.mu.RLock()
	out := make([]*Tweak, 0, len(s.tweaks))
	for _, t := range s.tweaks {
		out = append(out, t)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, (*Tweak).Compare)
	return out
}

// Merge adds every tweak of other that s does not already contain and
// returns how many were added.
func (s *Set) Merge(other *Set) int {
	added := 0
	for _, t := range other.Sorted() {
		if s.Add(t) {
			added++
		}
	}
	return added
}

// Close disables every tweak. The set keeps its members.
func (s *Set) Close() error {
	var errs []error
	for _, t := range s.Sorted() {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
