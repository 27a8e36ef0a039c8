// Package session holds values that persist across page runs, and requests a
// rerun of every page when a run changed them.
package session

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
)

// Rerunner requests that every page runs again.
type Rerunner interface {
	RequestRerun()
}

// RerunFunc adapts a function to a [Rerunner].
type RerunFunc func()

// RequestRerun calls f.
func (f RerunFunc) RequestRerun() {
	f()
}

// Hasher is implemented by values that hash their own content. Values stored
// in a [State] that do not implement Hasher are hashed by their exported
// fields.
type Hasher interface {
	Hash() (uint64, error)
}

// State is a set of named values with a dirty check.
//
// After each page run, [State.Sync] compares a hash of every value with the
// hash from the previous sync. When they differ, a rerun is requested so that
// every page renders with up to date values. At most one rerun is requested
// in a row, so a value that changes on every run cannot cause a loop.
type State struct {
	rerunner Rerunner
	values   map[string]any
	hash     uint64
	hashed   bool
	isRerun  bool
	mu       sync.Mutex
}

// NewState creates a new [State]. A nil [Rerunner] is allowed.
func NewState(r Rerunner) *State {
	return &State{
		rerunner: r,
		values:   make(map[string]any),
	}
}

// Init sets each value whose key is not already present.
func (s *State) Init(values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range values {
		if _, ok := s.values[k]; !ok {
			s.values[k] = v
		}
	}
}

// Get returns the value for key, or nil if it is undefined.
func (s *State) Get(key string) any {
	v, _ := s.Lookup(key)

	return v
}

// Lookup returns the value for key, and whether it is defined.
func (s *State) Lookup(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]

	return v, ok
}

// LoadOrInit returns the value for key. If it is undefined, init is called
// and its result is stored and returned.
func (s *State) LoadOrInit(key string, init func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		v = init()
		s.values[key] = v
	}

	return v
}

// Set stores the value for key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

// Delete removes key.
func (s *State) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// Keys returns the defined keys in sorted order.
func (s *State) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.values))
}

// Clear removes every value and requests a rerun.
func (s *State) Clear() {
	s.mu.Lock()
	clear(s.values)
	s.mu.Unlock()

	s.requestRerun()
}

// IsRerun reports whether the last [State.Sync] requested a rerun.
func (s *State) IsRerun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.isRerun
}

// Hash returns a hash of every value.
func (s *State) Hash() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hashLocked()
}

// Sync runs the dirty check. It should be called once after each page run.
//
// If the previous sync requested a rerun, the flag is reset. Otherwise, if the
// values changed since the previous sync, a rerun is requested. The current
// hash is always stored.
func (s *State) Sync() error {
	s.mu.Lock()

	h, err := s.hashLocked()
	if err != nil {
		s.mu.Unlock()

		return err
	}

	rerun := false

	switch {
	case s.isRerun:
		s.isRerun = false
	case s.hashed && s.hash != h:
		s.isRerun = true
		rerun = true
	}

	s.hash = h
	s.hashed = true

	s.mu.Unlock()

	if rerun {
		slog.Debug("session changed, requesting rerun")
		s.requestRerun()
	}

	return nil
}

func (s *State) requestRerun() {
	if s.rerunner != nil {
		s.rerunner.RequestRerun()
	}
}

func (s *State) hashLocked() (uint64, error) {
	hashes := make(map[string]uint64, len(s.values))

	for k, v := range s.values {
		var (
			h   uint64
			err error
		)

		if hv, ok := v.(Hasher); ok {
			h, err = hv.Hash()
		} else {
			h, err = hashstructure.Hash(v, hashstructure.FormatV2, nil)
		}

		if err != nil {
			return 0, fmt.Errorf("hash %q: %w", k, err)
		}

		hashes[k] = h
	}

	h, err := hashstructure.Hash(hashes, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hash state: %w", err)
	}

	return h, nil
}
