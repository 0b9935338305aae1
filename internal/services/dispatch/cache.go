package dispatch

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

type cachedFrame struct {
	data     []byte
	storedAt time.Time
}

// FrameCache keeps recently dispatched frames so a later worker result can
// be snapshotted without the worker echoing the image back.
type FrameCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewFrameCache(maxEntries int, ttl time.Duration) *FrameCache {
	if maxEntries <= 0 {
		return nil
	}
	return &FrameCache{cache: lru.New(maxEntries), ttl: ttl, now: time.Now}
}

func FrameKey(cameraID int64, timestamp string) string {
	return fmt.Sprintf("%d|%s", cameraID, timestamp)
}

func (c *FrameCache) Put(key string, data []byte) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, cachedFrame{data: data, storedAt: c.now()})
}

// Get returns the frame for key unless it is missing or older than the TTL
func (c *FrameCache) Get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	f := v.(cachedFrame)
	if c.ttl > 0 && c.now().Sub(f.storedAt) > c.ttl {
		c.cache.Remove(key)
		return nil, false
	}
	return f.data, true
}

func (c *FrameCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
