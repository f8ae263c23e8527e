package storage

import (
	"sync"
	"time"
)

// NoExpiry passed as a TTL stores an entry that never expires.
const NoExpiry time.Duration = 0

// entry is one stored value. A zero expiresAt means no expiry.
type entry struct {
	value     string
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at now.
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is the shared key-value mapping of a running server.
//
// A *Store is the handle every connection holds; all handles refer to the
// same map. Reads share one RWMutex, writes take it exclusively, and each
// operation acquires it exactly once.
//
// Expiration is lazy: Get hides expired entries but never deletes them.
// An expired entry stays in memory until it is overwritten or removed.
type Store struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]entry),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Insert stores value under key, replacing any previous entry. A positive
// ttl expires the entry ttl after now; otherwise it never expires.
func (s *Store) Insert(key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = e
}

// Get returns the value of key if it is present and not expired.
func (s *Store) Get(key string) (string, bool) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[key]
	if !ok || e.expired(now) {
		return "", false
	}
	return e.value, true
}

// Remove deletes key whether or not it has expired and returns the value
// it held, if any.
func (s *Store) Remove(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return "", false
	}
	delete(s.items, key)
	return e.value, true
}

// Delete deletes key whether or not it has expired. It reports whether
// the removed entry was still live.
func (s *Store) Delete(key string) bool {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items[key]
	if !ok {
		return false
	}
	delete(s.items, key)
	return !e.expired(now)
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
