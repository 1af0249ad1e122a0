package store

import (
	"sync"
	"time"
)

// ReadCache holds the last fetched copy of the remote log for a short TTL. A nil
// cache never hits. Writers must call Invalidate after a successful write.
type ReadCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	data    []byte
	sha     string
	fetched time.Time
	valid   bool
}

func NewReadCache(ttl time.Duration, now func() time.Time) *ReadCache {
	if now == nil {
		now = time.Now
	}
	return &ReadCache{ttl: ttl, now: now}
}

func (c *ReadCache) Get() (data []byte, sha string, ok bool) {
	if c == nil || c.ttl <= 0 {
		return nil, "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.now().Sub(c.fetched) >= c.ttl {
		return nil, "", false
	}
	return c.data, c.sha, true
}

func (c *ReadCache) Put(data []byte, sha string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append([]byte(nil), data...)
	c.sha = sha
	c.fetched = c.now()
	c.valid = true
}

func (c *ReadCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.sha = ""
	c.valid = false
}
