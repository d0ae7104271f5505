package kv

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in-process. It is used for standalone
// single-worker runs (no Redis configured) and by the engine tests.
// Coordination guarantees only hold within one process.
type MemoryStore struct {
	mu    sync.Mutex
	vals  map[string]memEntry
	lists map[string]memList
	now   func() time.Time
}

type memEntry struct {
	value    string
	expireAt time.Time // zero = no expiry
}

type memList struct {
	items    []string
	expireAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vals:  make(map[string]memEntry),
		lists: make(map[string]memList),
		now:   time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

func (l memList) expired(now time.Time) bool {
	return !l.expireAt.IsZero() && !now.Before(l.expireAt)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.vals[key]; ok && !e.expired(now) {
		return false, nil
	}
	s.vals[key] = memEntry{value: value, expireAt: expiry(now, ttl)}
	return true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = memEntry{value: value, expireAt: expiry(s.now(), ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.vals[key]
	if !ok || e.expired(s.now()) {
		delete(s.vals, key)
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, key)
	delete(s.lists, key)
	return nil
}

func (s *MemoryStore) RPush(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	l := s.lists[key]
	if l.expired(now) {
		l = memList{}
	}
	l.items = append(l.items, value)
	l.expireAt = expiry(now, ttl)
	s.lists[key] = l
	return nil
}

func (s *MemoryStore) PopAll(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[key]
	delete(s.lists, key)
	if !ok || l.expired(s.now()) {
		return nil, nil
	}
	return l.items, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
