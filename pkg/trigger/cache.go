package trigger

import (
	"sync"

	"github.com/vango-dev/primitives/pkg/reactive"
)

// Cache keeps one Trigger per key.
//
// A key's trigger is created the first time it is tracked from a reactive
// scope and dropped once it is dirtied with nobody depending on it, so the
// cache only grows with keys that are actually observed.
type Cache[K comparable] struct {
	mu       sync.Mutex
	triggers map[K]*Trigger
}

// NewCache creates an empty Cache.
func NewCache[K comparable]() *Cache[K] {
	return &Cache[K]{triggers: make(map[K]*Trigger)}
}

// Track subscribes the current listener to key. Outside a tracked scope it
// does nothing.
func (c *Cache[K]) Track(key K) {
	if !reactive.IsTracking() {
		return
	}

	c.mu.Lock()
	t, ok := c.triggers[key]
	if !ok {
		t = New()
		c.triggers[key] = t
	}
	c.mu.Unlock()

	t.Track()
}

// Dirty notifies the subscribers of key.
func (c *Cache[K]) Dirty(key K) {
	c.mu.Lock()
	t, ok := c.triggers[key]
	if ok && !t.Observed() {
		delete(c.triggers, key)
		ok = false
	}
	c.mu.Unlock()

	if ok {
		t.Dirty()
	}
}

// DirtyAll notifies the subscribers of every key in one batch.
func (c *Cache[K]) DirtyAll() {
	c.mu.Lock()
	live := make([]*Trigger, 0, len(c.triggers))
	for key, t := range c.triggers {
		if !t.Observed() {
			delete(c.triggers, key)
			continue
		}
		live = append(live, t)
	}
	c.mu.Unlock()

	reactive.Batch(func() {
		for _, t := range live {
			t.Dirty()
		}
	})
}

// Len returns the number of keys currently holding a trigger.
func (c *Cache[K]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.triggers)
}
