// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sub2md/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "data", "example.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestOpenCreatesDBFile(t *testing.T) {
	s, dir := testStore(t)
	_, err := os.Stat(filepath.Join(dir, "data", "example.db"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "example.db"), s.Path())

	// Reopening an existing catalog keeps the schema.
	s2, err := Open(s.Path())
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestUpsertAndPosts(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, types.Post{URL: "https://x.com/p/old", Slug: "old", Title: "Old", PublishedAt: date(2023, 1, 1)}, ""))
	require.NoError(t, s.Upsert(ctx, types.Post{URL: "https://x.com/p/undated", Slug: "undated", Title: "Undated"}, ""))
	require.NoError(t, s.Upsert(ctx, types.Post{
		URL:          "https://x.com/p/new",
		Slug:         "new",
		Title:        "New",
		Subtitle:     "Sub",
		Author:       "Jane",
		PublishedAt:  date(2024, 5, 1),
		LikeCount:    7,
		Paid:         true,
		MarkdownPath: "md/new.md",
		HTMLPath:     "html/new.html",
	}, "run-1"))

	posts, err := s.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "New", posts[0].Title)
	assert.Equal(t, "Old", posts[1].Title)
	assert.Equal(t, "Undated", posts[2].Title)

	p := posts[0]
	assert.Equal(t, "Sub", p.Subtitle)
	assert.Equal(t, "Jane", p.Author)
	assert.Equal(t, 7, p.LikeCount)
	assert.True(t, p.Paid)
	assert.Equal(t, "md/new.md", p.MarkdownPath)
	assert.Equal(t, "html/new.html", p.HTMLPath)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.Equal(*date(2024, 5, 1)))
	assert.False(t, p.FetchedAt.IsZero())
	assert.Nil(t, posts[2].PublishedAt)
}

func TestUpsertReplacesExisting(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, types.Post{URL: "https://x.com/p/a", Slug: "a", Title: "First", LikeCount: 1}, ""))
	require.NoError(t, s.Upsert(ctx, types.Post{URL: "https://x.com/p/a", Slug: "a", Title: "Second", LikeCount: 5}, ""))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, ok, err := s.Post(ctx, "https://x.com/p/a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Second", p.Title)
	assert.Equal(t, 5, p.LikeCount)

	_, ok, err = s.Post(ctx, "https://x.com/p/missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentUpserts(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "https://x.com/p/" + string(rune('a'+i))
			assert.NoError(t, s.Upsert(ctx, types.Post{URL: url, Slug: "s"}, ""))
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestRuns(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()

	id, err := s.StartRun(ctx, "https://example.substack.com")
	require.NoError(t, err)
	assert.Len(t, id, 36)

	require.NoError(t, s.FinishRun(ctx, id, types.BatchResult{Converted: 3, Skipped: 1, Failed: 1}))
	assert.Error(t, s.FinishRun(ctx, "no-such-run", types.BatchResult{}))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "https://example.substack.com", runs[0].Publication)
	assert.Equal(t, types.BatchResult{Converted: 3, Skipped: 1, Failed: 1}, runs[0].Result)
	assert.NotNil(t, runs[0].FinishedAt)
}

func TestExports(t *testing.T) {
	s, dir := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, types.Post{URL: "https://x.com/p/a", Slug: "a", Title: "A", PublishedAt: date(2024, 1, 2)}, ""))

	jsonPath := filepath.Join(dir, "data", "example.json")
	require.NoError(t, s.ExportJSON(ctx, "example", jsonPath))
	doc, err := LoadExport(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "example", doc.Publication)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, "A", doc.Posts[0].Title)

	yamlPath := filepath.Join(dir, "data", "example.yaml")
	require.NoError(t, s.ExportYAML(ctx, "example", yamlPath))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	var fromYAML Export
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML.Posts, 1)
	assert.Equal(t, "https://x.com/p/a", fromYAML.Posts[0].URL)
}

func TestExportEmptyCatalog(t *testing.T) {
	s, dir := testStore(t)
	path := filepath.Join(dir, "out", "empty.json")
	require.NoError(t, s.ExportJSON(context.Background(), "example", path))
	doc, err := LoadExport(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Posts)
}
