package prep

import (
	"container/list"
	"sync"
)

// payloadCache is a bounded LRU of encoded payloads keyed by source path.
// It is shared process-wide so repeated batch runs skip re-decoding.
type payloadCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = least recently used
}

type cacheEntry struct {
	key     string
	payload Payload
}

func newPayloadCache(capacity int) *payloadCache {
	return &payloadCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *payloadCache) get(key string) (Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Payload{}, false
	}
	c.order.MoveToBack(el)
	return el.Value.(*cacheEntry).payload, true
}

func (c *payloadCache) set(key string, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).payload = payload
		c.order.MoveToBack(el)
		return
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, payload: payload})
	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *payloadCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
