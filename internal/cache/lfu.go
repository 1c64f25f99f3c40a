// Package cache provides a bounded in-memory LFU cache used to keep hot song
// records out of the database on repeated lookups.
package cache

import "sync"

// LFUCache evicts the least frequently used entry once capacity is reached.
// Entries with equal frequency are evicted FIFO by insertion order. The cache
// is safe for concurrent use; it is never consulted for writes and callers
// must Remove or overwrite entries after backend writes change cached fields.
type LFUCache[V any] struct {
	mu      sync.Mutex
	maxSize int
	values  map[string]V
	freqs   map[string]int
	buckets map[int][]string
	minFreq int
}

func NewLFU[V any](maxSize int) *LFUCache[V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LFUCache[V]{
		maxSize: maxSize,
		values:  make(map[string]V),
		freqs:   make(map[string]int),
		buckets: make(map[int][]string),
	}
}

// Get returns the cached value and bumps the key's access frequency.
func (c *LFUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.values[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.touch(key)
	return v, true
}

// Put inserts or replaces a value. Replacing an existing key bumps its
// frequency; inserting at capacity evicts first.
func (c *LFUCache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.values[key]; ok {
		c.values[key] = value
		c.touch(key)
		return
	}

	if len(c.values) >= c.maxSize {
		c.evict()
	}

	c.values[key] = value
	c.freqs[key] = 1
	c.minFreq = 1
	c.buckets[1] = append(c.buckets[1], key)
}

// Remove drops a key, for explicit invalidation after a backend write.
func (c *LFUCache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	freq, ok := c.freqs[key]
	if !ok {
		return false
	}
	delete(c.values, key)
	delete(c.freqs, key)
	c.dropFromBucket(freq, key)
	if freq == c.minFreq && len(c.buckets[freq]) == 0 {
		c.advanceMinFreq()
	}
	return true
}

func (c *LFUCache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

func (c *LFUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func (c *LFUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]V)
	c.freqs = make(map[string]int)
	c.buckets = make(map[int][]string)
	c.minFreq = 0
}

// touch moves a key from its current frequency bucket to the next one up.
// Caller must hold the lock.
func (c *LFUCache[V]) touch(key string) {
	oldFreq := c.freqs[key]
	c.freqs[key] = oldFreq + 1

	c.dropFromBucket(oldFreq, key)
	if oldFreq == c.minFreq && len(c.buckets[oldFreq]) == 0 {
		c.minFreq++
	}
	c.buckets[oldFreq+1] = append(c.buckets[oldFreq+1], key)
}

// evict removes the oldest-inserted key in the minimum frequency bucket.
// Caller must hold the lock.
func (c *LFUCache[V]) evict() {
	bucket := c.buckets[c.minFreq]
	if len(bucket) == 0 {
		return
	}
	evictKey := bucket[0]
	c.buckets[c.minFreq] = bucket[1:]
	delete(c.values, evictKey)
	delete(c.freqs, evictKey)

	if len(c.buckets[c.minFreq]) == 0 {
		c.advanceMinFreq()
	}
}

// advanceMinFreq rescans upward for the next non-empty bucket, or resets to
// the empty-cache state. Caller must hold the lock.
func (c *LFUCache[V]) advanceMinFreq() {
	delete(c.buckets, c.minFreq)
	if len(c.values) == 0 {
		c.minFreq = 0
		return
	}
	for len(c.buckets[c.minFreq]) == 0 {
		delete(c.buckets, c.minFreq)
		c.minFreq++
	}
}

func (c *LFUCache[V]) dropFromBucket(freq int, key string) {
	bucket := c.buckets[freq]
	for i, k := range bucket {
		if k == key {
			c.buckets[freq] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}
