package cache

import (
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory(10)

	m.Set("k", "v", time.Minute)

	got, ok := m.Get("k")
	if !ok {
		t.Fatalf("expected hit for fresh entry")
	}
	if got != "v" {
		t.Fatalf("expected v, got %v", got)
	}
}

func TestMemory_ExpiredEntryMisses(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(10, func() time.Time { return now })

	m.Set("k", "v", time.Minute)
	now = now.Add(2 * time.Minute)

	if _, ok := m.Get("k"); ok {
		t.Fatalf("expected miss after TTL elapsed")
	}
	if m.Len() != 0 {
		t.Fatalf("expected lazy expiry to delete the entry, len=%d", m.Len())
	}
}

func TestMemory_OverflowClearsEverything(t *testing.T) {
	m := NewMemory(3)

	m.Set("a", 1, time.Minute)
	m.Set("b", 2, time.Minute)
	m.Set("c", 3, time.Minute)
	// Fourth distinct key exceeds capacity: the whole map is dropped,
	// then the new entry inserted.
	m.Set("d", 4, time.Minute)

	if m.Len() != 1 {
		t.Fatalf("expected clear-all eviction to leave 1 entry, got %d", m.Len())
	}
	if _, ok := m.Get("a"); ok {
		t.Fatalf("expected a to be evicted")
	}
	if _, ok := m.Get("d"); !ok {
		t.Fatalf("expected d to survive")
	}
}

func TestMemory_OverwriteDoesNotEvict(t *testing.T) {
	m := NewMemory(2)

	m.Set("a", 1, time.Minute)
	m.Set("b", 2, time.Minute)
	m.Set("a", 10, time.Minute)

	if m.Len() != 2 {
		t.Fatalf("overwriting an existing key must not trigger eviction, len=%d", m.Len())
	}
}

func TestMemory_PruneRemovesOnlyExpired(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(10, func() time.Time { return now })

	m.Set("old", 1, time.Second)
	m.Set("fresh", 2, time.Hour)
	now = now.Add(time.Minute)

	m.Prune()

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry after prune, got %d", m.Len())
	}
	if _, ok := m.Get("fresh"); !ok {
		t.Fatalf("expected fresh entry to survive prune")
	}
}
