package cache

import "time"

// LayeredCache fronts the disk cache with a memory cache. Search results
// for a repeated query are usually served from memory; after a restart
// the disk layer refills it.
type LayeredCache struct {
	hot  Cache
	cold Cache
}

func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		hot:  NewMemoryCache(memoryTTL, 10*time.Minute),
		cold: NewDiskCache(diskDir, diskTTL),
	}
}

// Get checks the memory layer first and promotes disk hits into it.
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.hot.Get(key); found {
		return val, true
	}

	val, found := c.cold.Get(key)
	if !found {
		return nil, false
	}
	_ = c.hot.Set(key, val, 0)
	return val, true
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.hot.Set(key, value, ttl); err != nil {
		return err
	}
	return c.cold.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.hot.Delete(key)
	return c.cold.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.hot.Clear()
	return c.cold.Clear()
}
