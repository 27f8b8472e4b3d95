package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DiskCache persists evidence search results across restarts. Each entry
// is a small JSON file named after the (already hashed) cache key.
type DiskCache struct {
	dir        string
	defaultTTL time.Duration
}

func NewDiskCache(dir string, defaultTTL time.Duration) *DiskCache {
	return &DiskCache{dir: dir, defaultTTL: defaultTTL}
}

type diskEntry struct {
	Payload []byte    `json:"payload"`
	Expires time.Time `json:"expires"`
}

func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.entryPath(key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Corrupt entry, drop it rather than fail every lookup.
		_ = os.Remove(path)
		return nil, false
	}

	if time.Now().After(entry.Expires) {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Payload, true
}

// Set writes the entry atomically: a temp file in the same directory is
// renamed into place, so a concurrent Get never sees a partial write.
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	raw, err := json.Marshal(diskEntry{
		Payload: value,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close entry: %w", err)
	}

	if err := os.Rename(tmpName, c.entryPath(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("install entry: %w", err)
	}
	return nil
}

func (c *DiskCache) Delete(key string) error {
	return os.Remove(c.entryPath(key))
}

func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

func (c *DiskCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
