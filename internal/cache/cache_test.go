package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("search:who discovered radium")
	k2 := Key("search:who discovered radium")
	k3 := Key("search:who discovered polonium")

	if k1 != k2 {
		t.Error("same input must produce the same key")
	}
	if k1 == k3 {
		t.Error("different inputs must produce different keys")
	}
	if !strings.HasPrefix(k1, "veridoc:v1:") {
		t.Errorf("key missing version prefix: %s", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("Get on empty cache must miss")
	}

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || string(val) != "v" {
		t.Errorf("Get = %q, %v, want %q, true", val, found, "v")
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Get after Delete must miss")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("q"), []byte("results"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get(Key("q"))
	if !found || string(val) != "results" {
		t.Errorf("Get = %q, %v, want %q, true", val, found, "results")
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get(Key("q")); found {
		t.Error("Get after Clear must miss")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set(Key("q"), []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, found := c.Get(Key("q")); found {
		t.Error("expired entry must miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Minute)

	// Seed only the disk layer, as if a previous process wrote it.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set(Key("q"), []byte("results"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := layered.Get(Key("q"))
	if !found || string(val) != "results" {
		t.Fatalf("Get = %q, %v, want %q, true", val, found, "results")
	}

	// After promotion the entry must survive losing the disk layer.
	if err := disk.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	val, found = layered.Get(Key("q"))
	if !found || string(val) != "results" {
		t.Errorf("promoted Get = %q, %v, want %q, true", val, found, "results")
	}
}
