// Package dedup provides a fixed-capacity cache of recently seen
// transmissions, used by the repeater and gateway receive paths to drop
// packets that have already been handled. Duplicates are a normal outcome of
// a lossy broadcast medium, not an error.
package dedup

import (
	"sync"
	"time"
)

// Key identifies a unique transmission. Senders keep independent counters per
// message type, so the type byte is part of the key; packets of different
// kinds from the same node may legitimately carry the same counter.
type Key struct {
	NodeID  uint32
	Type    byte
	Counter uint32
}

type entry struct {
	key    Key
	seenAt time.Time
	live   bool
}

// Cache is a ring of recently seen keys. Once full, each insert overwrites
// the oldest slot; eviction is the steady state, never an error. All methods
// are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries []entry
	cursor  int
	clock   func() time.Time
}

// NewCache returns a cache holding at most capacity keys.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		entries: make([]entry, capacity),
		clock:   time.Now,
	}
}

// Seen reports whether k is currently held in the ring.
func (c *Cache) Seen(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(k) >= 0
}

// Remember records k at the cursor, overwriting whatever was there, and
// advances the cursor. Call it before the forward action, not after, so a
// second copy arriving mid-forward is already flagged.
func (c *Cache) Remember(k Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remember(k)
}

// Observe combines Seen and Remember under one lock. It reports whether k was
// already present and, for duplicates, how long ago the first copy arrived.
// New keys are recorded before returning, so two rapid receptions of the same
// transmission cannot both pass the check.
func (c *Cache) Observe(k Key) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.lookup(k); i >= 0 {
		return c.clock().Sub(c.entries[i].seenAt), true
	}
	c.remember(k)
	return 0, false
}

// Cap returns the fixed ring capacity.
func (c *Cache) Cap() int { return len(c.entries) }

// lookup returns the index of k, or -1. Linear scan; capacity stays small
// enough (tens of slots) that this is cheaper than maintaining a map beside
// the ring.
func (c *Cache) lookup(k Key) int {
	for i := range c.entries {
		if c.entries[i].live && c.entries[i].key == k {
			return i
		}
	}
	return -1
}

func (c *Cache) remember(k Key) {
	c.entries[c.cursor] = entry{key: k, seenAt: c.clock(), live: true}
	c.cursor = (c.cursor + 1) % len(c.entries)
}
