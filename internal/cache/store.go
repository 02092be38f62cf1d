// Package cache memoizes upstream data and analysis results for a fixed TTL.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when no TTL is configured.
const DefaultTTL = time.Hour

// Recorder receives hit and miss notifications.
type Recorder interface {
	CacheLookup(store string, hit bool)
}

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Store is a TTL map safe for concurrent use. Entries are replaced wholesale on Set.
type Store[T any] struct {
	name string
	ttl  time.Duration
	now  func() time.Time
	rec  Recorder

	mu      sync.RWMutex
	entries map[string]entry[T]
}

func NewStore[T any](name string, ttl time.Duration, opts ...Option) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store[T]{
		name:    name,
		ttl:     ttl,
		now:     cfg.now,
		rec:     cfg.rec,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the value stored under key if it is younger than the TTL.
func (s *Store[T]) Get(key string) (T, bool) {
	key = Key(key)

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && s.now().Sub(e.storedAt) >= s.ttl {
		ok = false
		s.mu.Lock()
		if cur, still := s.entries[key]; still && cur.storedAt.Equal(e.storedAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}

	if s.rec != nil {
		s.rec.CacheLookup(s.name, ok)
	}

	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	s.entries[Key(key)] = entry[T]{value: value, storedAt: s.now()}
	s.mu.Unlock()
}

func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, Key(key))
	s.mu.Unlock()
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry[T])
	s.mu.Unlock()
}

// Len counts entries that have not expired yet.
func (s *Store[T]) Len() int {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if now.Sub(e.storedAt) < s.ttl {
			n++
		}
	}
	return n
}

func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Key normalizes a candidate identifier: logins are case-insensitive.
func Key(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
