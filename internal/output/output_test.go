// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sub2md/pkg/types"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 15, 4, 0, 0, time.UTC)
	return &t
}

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("/out", "example")
	assert.Equal(t, "/out/substack_md_files/example/2024-01-02_a.md", l.MarkdownPath("2024-01-02_a"))
	assert.Equal(t, "/out/substack_html_pages/example/2024-01-02_a.html", l.HTMLPath("2024-01-02_a"))
	assert.Equal(t, "/out/data/example.db", l.CatalogPath())
	assert.Equal(t, "/out/data/example.json", l.ExportPath("json"))
	assert.Equal(t, "/out/substack_md_files/example/index.md", l.MarkdownIndexPath())
	assert.Equal(t, "/out/substack_html_pages/example/index.html", l.HTMLIndexPath())
	assert.Equal(t, "/out/cache", l.CacheDir())

	rel := l.Rel(l.MarkdownPath("x"))
	assert.Equal(t, "substack_md_files/example/x.md", rel)
	assert.Equal(t, l.MarkdownPath("x"), l.Abs(rel))
	assert.Equal(t, "", l.Abs(""))
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		title string
		date  *time.Time
		want  string
	}{
		{"url slug with date", "https://x.substack.com/p/my-post", "Ignored", day(2024, 3, 9), "2024-03-09_my-post"},
		{"trailing slash", "https://x.substack.com/p/my-post/", "", nil, "my-post"},
		{"title when url has no slug", "https://x.substack.com/", "Hello World", nil, "hello-world"},
		{"fallback", "", "", day(2020, 1, 1), "2020-01-01_post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BaseName(tt.url, tt.title, tt.date))
		})
	}
}

func TestRenderAndReadMarkdown(t *testing.T) {
	post := types.Post{
		URL:         "https://x.substack.com/p/my-post",
		Title:       "My Post: a story",
		Subtitle:    "Sub",
		Author:      "Jane",
		PublishedAt: day(2024, 3, 9),
		LikeCount:   12,
		Paid:        true,
		FetchedAt:   time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC),
	}
	data, err := RenderMarkdown(post, "Body text.")
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "---\n"))
	assert.Contains(t, text, "\n---\n\n# My Post: a story\n\n*Sub*\n\nBody text.\n")

	path := filepath.Join(t.TempDir(), "p.md")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, body, err := ReadMarkdown(path)
	require.NoError(t, err)
	assert.Equal(t, post.URL, got.URL)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, "Sub", got.Subtitle)
	assert.Equal(t, "Jane", got.Author)
	assert.Equal(t, 12, got.LikeCount)
	assert.True(t, got.Paid)
	assert.Equal(t, "my-post", got.Slug)
	assert.Equal(t, "2024-03-09", got.DateString())
	assert.True(t, got.FetchedAt.Equal(post.FetchedAt))
	assert.True(t, strings.HasSuffix(body, "Body text."))
}

func TestRenderMarkdownKeepsBodyHeading(t *testing.T) {
	data, err := RenderMarkdown(types.Post{Title: "Title"}, "# Title\n\nHello")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "# Title"))
}

func TestRenderHTML(t *testing.T) {
	post := types.Post{
		URL:         "https://x.substack.com/p/a",
		Title:       "Fish & <Chips>",
		Author:      "Jane",
		PublishedAt: day(2024, 3, 9),
		LikeCount:   3,
	}
	data, err := RenderHTML(post, "<p>Hello <em>there</em></p>")
	require.NoError(t, err)
	page := string(data)
	assert.Contains(t, page, "<title>Fish &amp; &lt;Chips&gt;</title>")
	assert.Contains(t, page, "<p>Hello <em>there</em></p>")
	assert.Contains(t, page, `<time datetime="2024-03-09">2024-03-09</time>`)
	assert.Contains(t, page, `href="https://x.substack.com/p/a"`)
	assert.Contains(t, page, "3 likes")
}

func TestWriterModes(t *testing.T) {
	ref := types.PostReference{URL: "https://x.substack.com/p/a", Title: "Listing title"}
	content := types.PostContent{
		Title:        "A",
		PublishedAt:  day(2024, 1, 2),
		HTMLBody:     "<p>a</p>",
		MarkdownBody: "a",
	}

	tests := []struct {
		mode     types.OutputMode
		wantMD   bool
		wantHTML bool
	}{
		{types.OutputBoth, true, true},
		{types.OutputMarkdown, true, false},
		{types.OutputHTML, false, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			root := t.TempDir()
			w := NewWriter(NewLayout(root, "x"), types.OutputConfig{Dir: root, Mode: tt.mode})

			assert.False(t, w.ShouldSkip("2024-01-02_a"))
			post, err := w.Write(ref, content)
			require.NoError(t, err)

			assert.Equal(t, "a", post.Slug)
			assert.Equal(t, tt.wantMD, post.MarkdownPath != "")
			assert.Equal(t, tt.wantHTML, post.HTMLPath != "")
			assert.Equal(t, tt.wantMD, fileExists(filepath.Join(root, "substack_md_files", "x", "2024-01-02_a.md")))
			assert.Equal(t, tt.wantHTML, fileExists(filepath.Join(root, "substack_html_pages", "x", "2024-01-02_a.html")))
			assert.True(t, w.ShouldSkip("2024-01-02_a"))
		})
	}
}

func TestWriterForceAndFallbacks(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(NewLayout(root, "x"), types.OutputConfig{Dir: root, Force: true})

	ref := types.PostReference{URL: "https://x.substack.com/p/b", Title: "Listing", PublishedAt: day(2023, 5, 6)}
	content := types.PostContent{MarkdownBody: "b", HTMLBody: "<p>b</p>"}

	assert.Equal(t, "2023-05-06_b", w.BaseName(ref, content))
	post, err := w.Write(ref, content)
	require.NoError(t, err)
	assert.Equal(t, "Listing", post.Title)
	assert.True(t, w.Exists("2023-05-06_b"))
	assert.False(t, w.ShouldSkip("2023-05-06_b"), "force never skips")

	existing := w.Existing(ref, content)
	assert.Equal(t, post.MarkdownPath, existing.MarkdownPath)
}

func TestWriterTitleFallbacks(t *testing.T) {
	w := NewWriter(NewLayout(t.TempDir(), "x"), types.OutputConfig{})
	ref := types.PostReference{URL: "https://x.substack.com/p/c"}

	tests := []struct {
		name         string
		pageTitle    string
		listingTitle string
		want         string
	}{
		{"page title wins", "From page", "From listing", "From page"},
		{"listing title when page has none", "", "From listing", "From listing"},
		{"untitled when neither names it", "", "", Untitled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ref
			r.Title = tt.listingTitle
			post := w.Post(r, types.PostContent{Title: tt.pageTitle, MarkdownBody: "c"})
			assert.Equal(t, tt.want, post.Title)
			assert.Equal(t, "c", post.Slug)
		})
	}
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "f.txt")
	require.NoError(t, WriteFile(path, []byte("one")))
	require.NoError(t, WriteFile(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
