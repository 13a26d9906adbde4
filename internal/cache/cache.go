// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps fetched post pages on disk, keyed by URL, so repeated
// runs do not download them again. A nil *Cache is valid and caches nothing.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const fileExt = ".html"

// Cache stores page bodies under a directory.
type Cache struct {
	dir string
}

// New returns a cache rooted at dir. The directory is created on first Put.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// Path returns the file that holds url's body.
func (c *Cache) Path(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+fileExt)
}

// Get returns the cached body for url. The second result is false on a miss.
func (c *Cache) Get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := os.ReadFile(c.Path(url))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stores body for url. The file is written to a temporary name and
// renamed so readers never see a partial page.
func (c *Cache) Put(url string, body []byte) error {
	if c == nil {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, ".page-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.Path(url)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storing cache file: %w", err)
	}
	return nil
}
