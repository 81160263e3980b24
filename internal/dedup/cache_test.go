package dedup

import (
	"testing"
	"time"
)

func key(node, counter uint32) Key {
	return Key{NodeID: node, Type: 0x01, Counter: counter}
}

func TestSeenAfterRemember(t *testing.T) {
	c := NewCache(10)
	c.Remember(key(5, 1))

	if !c.Seen(key(5, 1)) {
		t.Error("Seen(5,1) = false after Remember")
	}
	if c.Seen(key(5, 2)) {
		t.Error("Seen(5,2) = true, never inserted")
	}
	if c.Seen(key(6, 1)) {
		t.Error("Seen(6,1) = true, never inserted")
	}
}

func TestTypeIsPartOfKey(t *testing.T) {
	c := NewCache(10)
	c.Remember(Key{NodeID: 5, Type: 0x01, Counter: 1})
	if c.Seen(Key{NodeID: 5, Type: 0x02, Counter: 1}) {
		t.Error("gnss key matched a sensor entry with the same counter")
	}
}

func TestRingEviction(t *testing.T) {
	const capacity = 10
	c := NewCache(capacity)
	c.Remember(key(5, 1))

	// capacity further distinct inserts push (5,1) out of the ring.
	for i := uint32(0); i < capacity; i++ {
		c.Remember(key(100+i, i))
	}
	if c.Seen(key(5, 1)) {
		t.Error("Seen(5,1) = true after full ring turnover")
	}
	// The newest entries are all still present.
	for i := uint32(0); i < capacity; i++ {
		if !c.Seen(key(100+i, i)) {
			t.Errorf("Seen(%d,%d) = false, should still be cached", 100+i, i)
		}
	}
}

func TestEvictionIsOldestFirst(t *testing.T) {
	c := NewCache(3)
	c.Remember(key(1, 1))
	c.Remember(key(2, 2))
	c.Remember(key(3, 3))
	c.Remember(key(4, 4)) // overwrites (1,1)

	if c.Seen(key(1, 1)) {
		t.Error("oldest entry survived overwrite")
	}
	for _, k := range []Key{key(2, 2), key(3, 3), key(4, 4)} {
		if !c.Seen(k) {
			t.Errorf("entry %+v evicted out of order", k)
		}
	}
}

func TestObserve(t *testing.T) {
	c := NewCache(10)
	now := time.Unix(1000, 0)
	c.clock = func() time.Time { return now }

	if age, dup := c.Observe(key(5, 1)); dup || age != 0 {
		t.Errorf("first Observe = (%v, %v), want (0, false)", age, dup)
	}

	now = now.Add(250 * time.Millisecond)
	age, dup := c.Observe(key(5, 1))
	if !dup {
		t.Fatal("second Observe not flagged as duplicate")
	}
	if age != 250*time.Millisecond {
		t.Errorf("duplicate age = %v, want 250ms", age)
	}

	if _, dup := c.Observe(key(5, 2)); dup {
		t.Error("fresh counter flagged as duplicate")
	}
}

func TestZeroCapacityClamped(t *testing.T) {
	c := NewCache(0)
	if c.Cap() != 1 {
		t.Fatalf("Cap = %d, want 1", c.Cap())
	}
	c.Remember(key(1, 1))
	if !c.Seen(key(1, 1)) {
		t.Error("single-slot cache lost its entry")
	}
	c.Remember(key(2, 2))
	if c.Seen(key(1, 1)) {
		t.Error("single-slot cache kept two entries")
	}
}
