// Package cache provides a keyed TTL store shared across request
// handlers within one process. It backs the IP rate limiter and the
// KPI response cache.
package cache

import (
	"sync"
	"time"
)

type Store interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Prune()
	Len() int
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Memory is a fixed-capacity TTL map. When an insert pushes the entry
// count over maxEntries the entire map is dropped and restarted empty.
// There is no LRU; overflow clears everything.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time
}

func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 5000
	}
	return &Memory{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// NewMemoryWithClock is for tests that need a deterministic clock.
func NewMemoryWithClock(maxEntries int, now func() time.Time) *Memory {
	m := NewMemory(maxEntries)
	m.now = now
	return m
}

func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *Memory) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && len(m.entries) >= m.maxEntries {
		m.entries = make(map[string]entry)
	}

	m.entries[key] = entry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Prune removes expired entries. Callers are not required to invoke
// it; Get expires lazily.
func (m *Memory) Prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
