// Package session keeps each browser session's loaded dataset in memory.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"opsdash/pkg/contracts/domain"
)

// Source tells where a session's dataset came from.
type Source string

const (
	SourceUpload Source = "upload"
	SourceSample Source = "sample"
)

// State is an immutable snapshot of a session. Changing the dataset means
// building a new State and putting it in the store.
type State struct {
	ID       string         `json:"id"`
	Dataset  domain.Dataset `json:"-"`
	Source   Source         `json:"source"`
	Filename string         `json:"filename,omitempty"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// WithDataset returns a copy of s holding ds.
func (s State) WithDataset(ds domain.Dataset, source Source, filename string, at time.Time) State {
	s.Dataset = ds
	s.Source = source
	s.Filename = filename
	s.LoadedAt = at
	return s
}

// Store holds session states by id.
type Store interface {
	Get(id string) (State, bool)
	Put(state State)
	Delete(id string) bool
	Len() int
	Sweep() int
}

type entry struct {
	state    State
	lastSeen time.Time
}

// MemoryStore is an in-memory Store whose idle entries expire lazily.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store expiring sessions idle for longer than ttl.
// A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return NewMemoryStoreWithClock(ttl, time.Now)
}

// NewMemoryStoreWithClock is NewMemoryStore with an explicit time source.
func NewMemoryStoreWithClock(ttl time.Duration, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     now,
	}
}

func (s *MemoryStore) expired(e *entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.lastSeen) > s.ttl
}

// Get returns the session's state and marks it as used.
func (s *MemoryStore) Get(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return State{}, false
	}
	now := s.now()
	if s.expired(e, now) {
		delete(s.entries, id)
		return State{}, false
	}
	e.lastSeen = now
	return e.state, true
}

// Put stores state, replacing any previous state of the same session.
func (s *MemoryStore) Put(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[state.ID] = &entry{state: state, lastSeen: s.now()}
}

// Delete removes a session. It reports whether the session existed.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return false
	}
	delete(s.entries, id)
	return true
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if !s.expired(e, now) {
			n++
		}
	}
	return n
}

// Sweep drops every expired session and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
