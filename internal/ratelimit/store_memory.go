package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryCounter struct {
	count     int
	expiresAt time.Time
}

// MemoryCounterStore keeps counters behind a single mutex, preserving
// the exact-count-under-concurrency property without a database.
// Used by tests and single-process deployments.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*memoryCounter),
		now:      time.Now,
	}
}

func NewMemoryCounterStoreWithClock(now func() time.Time) *MemoryCounterStore {
	s := NewMemoryCounterStore()
	s.now = now
	return s
}

func (s *MemoryCounterStore) Touch(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !c.expiresAt.After(now) {
		c = &memoryCounter{count: 1, expiresAt: now.Add(window)}
		s.counters[key] = c
		return c.count, c.expiresAt, nil
	}

	c.count++
	return c.count, c.expiresAt, nil
}
