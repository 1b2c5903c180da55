package admission

import (
	"hash/fnv"
	"sync"
	"time"
)

// CounterEntry is a single fixed-window counter. Copies are returned to
// callers; the live entry never leaves the store.
type CounterEntry struct {
	Count       int
	WindowStart time.Time
	ExpiresAt   time.Time
}

const counterShards = 32

// CounterStore is a sharded, concurrency-safe table of fixed-window counters.
// Sharding keeps unrelated identifiers from contending on one lock; the
// read-modify-write on an entry happens inside a single shard critical
// section so increments are never lost under concurrent load.
type CounterStore struct {
	clock  Clock
	shards [counterShards]counterShard
}

type counterShard struct {
	mu      sync.Mutex
	entries map[string]*CounterEntry
}

// NewCounterStore returns an empty store. A nil clock defaults to time.Now.
func NewCounterStore(clock Clock) *CounterStore {
	if clock == nil {
		clock = time.Now
	}
	s := &CounterStore{clock: clock}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]*CounterEntry)
	}
	return s
}

func (s *CounterStore) shard(key string) *counterShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.shards[h.Sum32()%counterShards]
}

// Hit atomically increments the live counter for key, creating a fresh
// window when none exists or the previous one has expired. It never fails;
// the returned entry reflects the state after the increment.
func (s *CounterStore) Hit(key string, window time.Duration) CounterEntry {
	now := s.clock()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok || !ent.ExpiresAt.After(now) {
		ent = &CounterEntry{Count: 1, WindowStart: now, ExpiresAt: now.Add(window)}
		sh.entries[key] = ent
		return *ent
	}
	ent.Count++
	return *ent
}

// Peek returns the live counter for key without incrementing it. Expired
// entries are reported as absent.
func (s *CounterStore) Peek(key string) (CounterEntry, bool) {
	now := s.clock()
	sh := s.shard(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ent, ok := sh.entries[key]
	if !ok || !ent.ExpiresAt.After(now) {
		return CounterEntry{}, false
	}
	return *ent, true
}

// Reset removes the counter for key, live or expired. Used for explicit
// clears such as a successful authentication.
func (s *CounterStore) Reset(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	delete(sh.entries, key)
	sh.mu.Unlock()
}

// Sweep removes expired entries and reports how many were dropped. Each
// shard lock is held only while that shard is scanned, so an in-flight Hit
// waits for at most one shard pass.
func (s *CounterStore) Sweep() int {
	now := s.clock()
	removed := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, ent := range sh.entries {
			if !ent.ExpiresAt.After(now) {
				delete(sh.entries, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len reports the number of tracked entries, expired ones included.
func (s *CounterStore) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}
