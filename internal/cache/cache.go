package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory, disk, and layered
// implementations. Values are opaque bytes; callers marshal their own
// payloads.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key hashes a search query or URL into a fixed-width, filename-safe
// cache key. The version prefix lets a format change invalidate old
// disk entries wholesale.
func Key(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "veridoc:v1:" + hex.EncodeToString(sum[:])
}
