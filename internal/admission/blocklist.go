package admission

import (
	"sort"
	"sync"
	"time"
)

// BlockEntry describes one blocked identifier. A nil ExpiresAt means the
// block is permanent and only an explicit unblock lifts it.
type BlockEntry struct {
	Identifier string     `json:"identifier"`
	Reason     string     `json:"reason"`
	BlockedAt  time.Time  `json:"blocked_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// BlockList is a concurrency-safe set of blocked identifiers fed by manual
// operator action and automatic escalation.
type BlockList struct {
	clock   Clock
	mu      sync.RWMutex
	entries map[string]BlockEntry
}

// NewBlockList returns an empty block list.
func NewBlockList(clock Clock) *BlockList {
	if clock == nil {
		clock = time.Now
	}
	return &BlockList{clock: clock, entries: make(map[string]BlockEntry)}
}

// Block adds or replaces the entry for identifier. A ttl of zero or less
// blocks permanently. Blocking an already-blocked identifier replaces the
// existing entry rather than erroring.
func (b *BlockList) Block(identifier, reason string, ttl time.Duration) BlockEntry {
	now := b.clock()
	ent := BlockEntry{Identifier: identifier, Reason: reason, BlockedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		ent.ExpiresAt = &exp
	}

	b.mu.Lock()
	b.entries[identifier] = ent
	b.mu.Unlock()
	return ent
}

// Unblock removes identifier. Unblocking an unknown identifier is a no-op.
func (b *BlockList) Unblock(identifier string) {
	b.mu.Lock()
	delete(b.entries, identifier)
	b.mu.Unlock()
}

// IsBlocked reports whether identifier currently has a live block. Expired
// entries count as unblocked; removal is left to Sweep.
func (b *BlockList) IsBlocked(identifier string) bool {
	_, ok := b.Get(identifier)
	return ok
}

// Get returns the live block entry for identifier, if any.
func (b *BlockList) Get(identifier string) (BlockEntry, bool) {
	now := b.clock()

	b.mu.RLock()
	ent, ok := b.entries[identifier]
	b.mu.RUnlock()

	if !ok {
		return BlockEntry{}, false
	}
	if ent.ExpiresAt != nil && !ent.ExpiresAt.After(now) {
		return BlockEntry{}, false
	}
	return ent, true
}

// List returns the live entries ordered by identifier.
func (b *BlockList) List() []BlockEntry {
	now := b.clock()

	b.mu.RLock()
	out := make([]BlockEntry, 0, len(b.entries))
	for _, ent := range b.entries {
		if ent.ExpiresAt != nil && !ent.ExpiresAt.After(now) {
			continue
		}
		out = append(out, ent)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out
}

// Len reports the number of live entries.
func (b *BlockList) Len() int {
	return len(b.List())
}

// Sweep drops expired entries and reports how many were removed.
func (b *BlockList) Sweep() int {
	now := b.clock()
	removed := 0

	b.mu.Lock()
	for id, ent := range b.entries {
		if ent.ExpiresAt != nil && !ent.ExpiresAt.After(now) {
			delete(b.entries, id)
			removed++
		}
	}
	b.mu.Unlock()
	return removed
}
