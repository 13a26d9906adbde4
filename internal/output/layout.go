// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package output decides where post artifacts live and writes them: one
// Markdown file with YAML frontmatter and one standalone HTML page per post.
package output

import "path/filepath"

const (
	markdownRoot = "substack_md_files"
	htmlRoot     = "substack_html_pages"
	dataDir      = "data"
	cacheDir     = "cache"
	indexName    = "index"
)

// Layout maps a publication to paths under the output root.
type Layout struct {
	Root   string
	Writer string
}

// NewLayout returns the layout for writer under root.
func NewLayout(root, writer string) Layout {
	return Layout{Root: root, Writer: writer}
}

// MarkdownDir holds the publication's Markdown files.
func (l Layout) MarkdownDir() string {
	return filepath.Join(l.Root, markdownRoot, l.Writer)
}

// HTMLDir holds the publication's HTML pages.
func (l Layout) HTMLDir() string {
	return filepath.Join(l.Root, htmlRoot, l.Writer)
}

// DataDir holds catalog databases and exports.
func (l Layout) DataDir() string {
	return filepath.Join(l.Root, dataDir)
}

// CacheDir holds the opt-in page cache.
func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, cacheDir)
}

// CatalogPath is the SQLite catalog of the publication.
func (l Layout) CatalogPath() string {
	return l.ExportPath("db")
}

// ExportPath is data/<writer>.<ext>.
func (l Layout) ExportPath(ext string) string {
	return filepath.Join(l.DataDir(), l.Writer+"."+ext)
}

// MarkdownPath is the Markdown file for a post base name.
func (l Layout) MarkdownPath(base string) string {
	return filepath.Join(l.MarkdownDir(), base+".md")
}

// HTMLPath is the HTML page for a post base name.
func (l Layout) HTMLPath(base string) string {
	return filepath.Join(l.HTMLDir(), base+".html")
}

// MarkdownIndexPath is the Markdown post index.
func (l Layout) MarkdownIndexPath() string {
	return filepath.Join(l.MarkdownDir(), indexName+".md")
}

// HTMLIndexPath is the HTML post index.
func (l Layout) HTMLIndexPath() string {
	return filepath.Join(l.HTMLDir(), indexName+".html")
}

// Rel returns path relative to the output root, or path itself when it is
// outside the root.
func (l Layout) Rel(path string) string {
	rel, err := filepath.Rel(l.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// Abs resolves a catalog path (relative to the root) to a filesystem path.
func (l Layout) Abs(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}
