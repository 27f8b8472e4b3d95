package model

import (
	"os"
	"path/filepath"
)

// defaultCacheDir returns the default on-disk cache location
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "veridoc-cache")
	}
	return filepath.Join(home, ".veridoc", "cache")
}
