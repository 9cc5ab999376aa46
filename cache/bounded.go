// Package cache provides the bounded lookup caches behind expensive
// per-process resolutions (bundle descriptions, icons). Each cache keeps
// a capacity-bounded hit map plus a separate capacity-bounded miss set
// recording keys known to resolve to nothing, so failed lookups are not
// repeated. Eviction is oldest-insertion-first with O(1) cost via an
// intrusive insertion-order list.
package cache

import "sync"

// DefaultCapacity bounds a cache when no explicit capacity is given.
const DefaultCapacity = 256

// node is one entry in an insertion-ordered list.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// fifo is an intrusive doubly-linked list ordered oldest to newest.
type fifo[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
}

func (l *fifo[K, V]) pushBack(n *node[K, V]) {
	n.prev = l.tail
	n.next = nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
}

func (l *fifo[K, V]) remove(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// Bounded is a capacity-bounded key-value cache with a companion miss
// set. All operations, including pure reads, take the cache's single
// mutex: hit/miss bookkeeping must stay atomic relative to eviction.
type Bounded[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int

	hits     map[K]*node[K, V]
	hitOrder fifo[K, V]

	misses    map[K]*node[K, struct{}]
	missOrder fifo[K, struct{}]
}

// NewBounded creates a cache holding at most capacity hit entries and at
// most capacity miss entries. Capacities below 1 fall back to
// DefaultCapacity.
func NewBounded[K comparable, V any](capacity int) *Bounded[K, V] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Bounded[K, V]{
		capacity: capacity,
		hits:     make(map[K]*node[K, V]),
		misses:   make(map[K]*node[K, struct{}]),
	}
}

// Get reports (value, hit, knownMiss). A known miss means a previous
// lookup resolved to nothing and the caller should not retry the
// expensive fetch.
func (c *Bounded[K, V]) Get(key K) (V, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.hits[key]; ok {
		return n.value, true, false
	}
	var zero V
	_, miss := c.misses[key]
	return zero, false, miss
}

// Put stores a resolved value. Re-inserting an existing key refreshes
// its value and its position in the eviction order; any miss entry for
// the key is cleared.
func (c *Bounded[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearMissLocked(key)

	if n, ok := c.hits[key]; ok {
		n.value = value
		c.hitOrder.remove(n)
		c.hitOrder.pushBack(n)
		return
	}

	n := &node[K, V]{key: key, value: value}
	c.hits[key] = n
	c.hitOrder.pushBack(n)

	for len(c.hits) > c.capacity {
		oldest := c.hitOrder.head
		c.hitOrder.remove(oldest)
		delete(c.hits, oldest.key)
	}
}

// MarkMiss records that key resolves to nothing. Any hit entry for the
// key is dropped.
func (c *Bounded[K, V]) MarkMiss(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.hits[key]; ok {
		c.hitOrder.remove(n)
		delete(c.hits, key)
	}

	if n, ok := c.misses[key]; ok {
		c.missOrder.remove(n)
		c.missOrder.pushBack(n)
		return
	}

	n := &node[K, struct{}]{key: key}
	c.misses[key] = n
	c.missOrder.pushBack(n)

	for len(c.misses) > c.capacity {
		oldest := c.missOrder.head
		c.missOrder.remove(oldest)
		delete(c.misses, oldest.key)
	}
}

// Len returns the number of resident hit entries.
func (c *Bounded[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hits)
}

// MissLen returns the number of resident miss entries.
func (c *Bounded[K, V]) MissLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.misses)
}

func (c *Bounded[K, V]) clearMissLocked(key K) {
	if n, ok := c.misses[key]; ok {
		c.missOrder.remove(n)
		delete(c.misses, key)
	}
}
