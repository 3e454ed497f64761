// Package cache provides the URL-keyed response cache used by the metadata
// endpoints. Entries expire after a fixed TTL but are never evicted; the set
// of cacheable URLs is bounded by the dataset's table count in practice.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL matches the metadata endpoints' one-hour caching window.
const DefaultTTL = time.Hour

type entry struct {
	body      []byte
	fetchedAt time.Time
}

// ResponseCache maps a full request URL to a serialized response body.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New returns a cache with the given TTL. now may be nil, in which case
// time.Now is used; tests inject a fake clock.
func New(ttl time.Duration, now func() time.Time) *ResponseCache {
	if now == nil {
		now = time.Now
	}
	return &ResponseCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns the cached body for url if present and fresh.
func (c *ResponseCache) Get(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.body, true
}

// Set stores body under url with the current timestamp.
func (c *ResponseCache) Set(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = entry{body: body, fetchedAt: c.now()}
}
