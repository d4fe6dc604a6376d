// Package cache is a small read-through cache with single-flight loading.
// Loader caches in this service are created per request, so entries never
// outlive the request that produced them.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	// TTL of a stored value; zero means entries never expire.
	TTL time.Duration
	// NegativeTTL caches loader errors; zero disables negative caching.
	NegativeTTL time.Duration
	// MaxEntries bounds the cache with FIFO eviction; zero means unbounded.
	MaxEntries int
}

type MetricsHooks struct {
	OnHit   func()
	OnMiss  func()
	OnError func()
}

type entry struct {
	value     interface{}
	err       error
	expiresAt time.Time
	negative  bool
}

func (e *entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

type Cache struct {
	mu      sync.RWMutex
	items   map[string]*entry
	order   []string
	opts    Options
	metrics MetricsHooks
	sf      singleflight.Group
}

func New(opts Options, hooks MetricsHooks) *Cache {
	return &Cache{
		items:   make(map[string]*entry),
		order:   make([]string, 0, 32),
		opts:    opts,
		metrics: hooks,
	}
}

// Loader fetches the value for key. ok=false with a nil error means "nothing
// to cache"; the caller receives (nil, false, nil).
type Loader func(ctx context.Context, key string) (interface{}, bool, error)

type loadResult struct {
	val interface{}
	ok  bool
	err error
}

// Get returns the cached value for key or runs loader once for all concurrent
// callers asking for the same key.
func (c *Cache) Get(ctx context.Context, key string, loader Loader) (interface{}, bool, error) {
	now := time.Now()
	c.mu.RLock()
	if e, ok := c.items[key]; ok && e.live(now) {
		c.mu.RUnlock()
		c.hit()
		if e.negative {
			return nil, false, e.err
		}
		return e.value, true, nil
	}
	c.mu.RUnlock()

	if c.metrics.OnMiss != nil {
		c.metrics.OnMiss()
	}
	result, _, _ := c.sf.Do(key, func() (interface{}, error) {
		// A flight that finished after our read may already have stored key.
		c.mu.RLock()
		if e, ok := c.items[key]; ok && !e.negative && e.live(time.Now()) {
			c.mu.RUnlock()
			return loadResult{val: e.value, ok: true}, nil
		}
		c.mu.RUnlock()

		val, ok, err := loader(ctx, key)
		c.store(key, val, ok, err)
		return loadResult{val: val, ok: ok, err: err}, nil
	})
	res := result.(loadResult)
	if res.err != nil || !res.ok {
		return nil, false, res.err
	}
	return res.val, true, nil
}

func (c *Cache) hit() {
	if c.metrics.OnHit != nil {
		c.metrics.OnHit()
	}
}

func (c *Cache) store(key string, val interface{}, ok bool, err error) {
	now := time.Now()
	e := &entry{}
	switch {
	case err != nil:
		if c.metrics.OnError != nil {
			c.metrics.OnError()
		}
		if c.opts.NegativeTTL <= 0 {
			return
		}
		e.err = err
		e.negative = true
		e.expiresAt = now.Add(c.opts.NegativeTTL)
	case ok:
		e.value = val
		if c.opts.TTL > 0 {
			e.expiresAt = now.Add(c.opts.TTL)
		}
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, e)
}

// Set primes key with val, replacing any previous entry.
func (c *Cache) Set(key string, val interface{}) {
	e := &entry{value: val}
	if c.opts.TTL > 0 {
		e.expiresAt = time.Now().Add(c.opts.TTL)
	}
	c.mu.Lock()
	c.put(key, e)
	c.mu.Unlock()
}

// peek returns a live cached value without triggering a load.
func (c *Cache) peek(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || e.negative || !e.live(time.Now()) {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.removeFromOrder(key)
	c.mu.Unlock()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*entry)
	c.order = c.order[:0]
	c.mu.Unlock()
}

func (c *Cache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// put must be called with c.mu held.
func (c *Cache) put(key string, e *entry) {
	if _, exists := c.items[key]; !exists {
		c.order = append(c.order, key)
	}
	c.items[key] = e
	c.evictIfNeeded()
}

func (c *Cache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache) evictIfNeeded() {
	if c.opts.MaxEntries <= 0 || len(c.items) <= c.opts.MaxEntries {
		return
	}
	excess := len(c.items) - c.opts.MaxEntries
	for excess > 0 && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.items, victim)
		excess--
	}
}
