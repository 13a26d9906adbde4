// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sub2md/internal/output"
	"github.com/pdiddy/sub2md/pkg/types"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func samplePosts() []types.Post {
	return []types.Post{
		{Title: "Older", PublishedAt: day(2023, 1, 1), MarkdownPath: "substack_md_files/x/2023-01-01_older.md", HTMLPath: "substack_html_pages/x/2023-01-01_older.html"},
		{Title: "Undated", MarkdownPath: "substack_md_files/x/undated.md"},
		{Title: "Newer | best", PublishedAt: day(2024, 6, 1), LikeCount: 9, Paid: true, MarkdownPath: "substack_md_files/x/2024-06-01_newer.md", HTMLPath: "substack_html_pages/x/2024-06-01_newer.html"},
	}
}

func TestSort(t *testing.T) {
	sorted := Sort(samplePosts())
	require.Len(t, sorted, 3)
	assert.Equal(t, "Newer | best", sorted[0].Title)
	assert.Equal(t, "Older", sorted[1].Title)
	assert.Equal(t, "Undated", sorted[2].Title)
}

func TestMarkdown(t *testing.T) {
	doc := Markdown("Example", Sort(samplePosts()), func(p types.Post) string { return p.MarkdownPath })
	want := "# Example\n\n3 posts\n\n" +
		"| Date | Title | Likes |\n| --- | --- | --- |\n" +
		"| 2024-06-01 | [Newer \\| best](2024-06-01_newer.md) (paid) | 9 |\n" +
		"| 2023-01-01 | [Older](2023-01-01_older.md) |  |\n" +
		"|  | [Undated](undated.md) |  |\n"
	assert.Equal(t, want, doc)
}

func TestMarkdownEmpty(t *testing.T) {
	doc := Markdown("Example", nil, func(p types.Post) string { return p.MarkdownPath })
	assert.Equal(t, "# Example\n\nNo posts yet.\n", doc)
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	layout := output.NewLayout(root, "x")
	g := New(layout, types.OutputBoth, "")

	written, err := g.Generate(samplePosts())
	require.NoError(t, err)
	assert.Equal(t, []string{layout.MarkdownIndexPath(), layout.HTMLIndexPath()}, written)

	md, err := os.ReadFile(layout.MarkdownIndexPath())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# x\n"))
	assert.Contains(t, string(md), "(undated.md)")

	page, err := os.ReadFile(layout.HTMLIndexPath())
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, `href="2024-06-01_newer.html"`)
	assert.NotContains(t, html, "undated", "posts without an HTML page are not listed")
}

func TestGenerateMarkdownOnly(t *testing.T) {
	root := t.TempDir()
	layout := output.NewLayout(root, "x")

	written, err := New(layout, types.OutputMarkdown, "Title").Generate(samplePosts())
	require.NoError(t, err)
	assert.Equal(t, []string{layout.MarkdownIndexPath()}, written)
	_, err = os.Stat(layout.HTMLIndexPath())
	assert.True(t, os.IsNotExist(err))
}
