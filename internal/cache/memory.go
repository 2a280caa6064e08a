package cache

import (
	"container/list"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	defaultCapacity = 10000
	defaultTTL      = time.Hour
)

type memoryEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a capacity-bounded LRU with per-entry expiry. Expired entries are
// dropped lazily on access; the least recently used entry is evicted when full.
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List
	items    map[string]*list.Element
	now      func() time.Time
	counters
}

// NewMemoryCache returns an empty cache. ttl is used when Set is given a zero TTL.
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		items:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	el, ok := c.items[key]
	if ok && !c.now().Before(el.Value.(*memoryEntry).expiresAt) {
		c.removeElement(el)
		ok = false
	}
	var data []byte
	if ok {
		c.order.MoveToFront(el)
		data = el.Value.(*memoryEntry).data
	}
	c.mu.Unlock()

	if !ok {
		c.record(false)
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	c.record(true)
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	expires := c.now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.data, e.expiresAt = data, expires
		c.order.MoveToFront(el)
		return nil
	}

	c.items[key] = c.order.PushFront(&memoryEntry{key: key, data: data, expiresAt: expires})
	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if el, ok := c.items[k]; ok {
			c.removeElement(el)
		}
	}
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, el := range c.items {
		if strings.HasPrefix(k, prefix) {
			c.removeElement(el)
		}
	}
	return nil
}

func (c *MemoryCache) Stats() Stats { return c.snapshot() }

// Len is the number of entries, including expired ones not yet dropped.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *MemoryCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*memoryEntry).key)
}
