// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "cache"))

	_, ok := c.Get("https://x.substack.com/p/a")
	assert.False(t, ok)

	require.NoError(t, c.Put("https://x.substack.com/p/a", []byte("<html>a</html>")))
	got, ok := c.Get("https://x.substack.com/p/a")
	require.True(t, ok)
	assert.Equal(t, "<html>a</html>", string(got))

	_, ok = c.Get("https://x.substack.com/p/b")
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	c := New(t.TempDir())
	require.NoError(t, c.Put("u", []byte("old")))
	require.NoError(t, c.Put("u", []byte("new")))

	got, ok := c.Get("u")
	require.True(t, ok)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(c.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not remain")
}

func TestPathIsStable(t *testing.T) {
	c := New("/tmp/cache")
	assert.Equal(t, c.Path("https://x.com/p/a"), c.Path("https://x.com/p/a"))
	assert.NotEqual(t, c.Path("https://x.com/p/a"), c.Path("https://x.com/p/b"))
	assert.Equal(t, ".html", filepath.Ext(c.Path("https://x.com/p/a")))
}

func TestNilCache(t *testing.T) {
	var c *Cache
	assert.NoError(t, c.Put("u", []byte("x")))
	_, ok := c.Get("u")
	assert.False(t, ok)
	assert.Equal(t, "", c.Dir())
}
