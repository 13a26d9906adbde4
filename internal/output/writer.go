// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/sub2md/pkg/types"
)

// Writer persists converted posts according to the output mode.
type Writer struct {
	layout Layout
	mode   types.OutputMode
	force  bool
	now    func() time.Time
}

// NewWriter returns a writer for layout. An empty mode means both.
func NewWriter(layout Layout, cfg types.OutputConfig) *Writer {
	mode := cfg.Mode
	if mode == "" {
		mode = types.OutputBoth
	}
	return &Writer{
		layout: layout,
		mode:   mode,
		force:  cfg.Force,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Layout returns the writer's layout.
func (w *Writer) Layout() Layout { return w.layout }

// Exists reports whether every artifact the mode wants for base is already
// on disk.
func (w *Writer) Exists(base string) bool {
	if w.mode.WantsMarkdown() && !fileExists(w.layout.MarkdownPath(base)) {
		return false
	}
	if w.mode.WantsHTML() && !fileExists(w.layout.HTMLPath(base)) {
		return false
	}
	return true
}

// ShouldSkip reports whether base is already written and Force is off.
func (w *Writer) ShouldSkip(base string) bool {
	return !w.force && w.Exists(base)
}

// Post builds the catalog record for a converted post without writing it.
func (w *Writer) Post(ref types.PostReference, content types.PostContent) types.Post {
	published := content.PublishedAt
	if published == nil {
		published = ref.PublishedAt
	}
	title := content.Title
	if title == "" {
		title = ref.Title
	}
	if title == "" {
		title = Untitled
	}
	base := BaseName(ref.URL, title, published)

	post := types.Post{
		URL:         ref.URL,
		Slug:        Slug(ref.URL, title),
		Title:       title,
		Subtitle:    content.Subtitle,
		Author:      content.Author,
		PublishedAt: published,
		LikeCount:   content.LikeCount,
		Paid:        content.Paid,
		FetchedAt:   w.now(),
	}
	if w.mode.WantsMarkdown() {
		post.MarkdownPath = w.layout.Rel(w.layout.MarkdownPath(base))
	}
	if w.mode.WantsHTML() {
		post.HTMLPath = w.layout.Rel(w.layout.HTMLPath(base))
	}
	return post
}

// BaseName is the artifact base name Write would use.
func (w *Writer) BaseName(ref types.PostReference, content types.PostContent) string {
	p := w.Post(ref, content)
	return BaseName(p.URL, p.Title, p.PublishedAt)
}

// Write persists the artifacts the mode asks for and returns the catalog
// record. Existing files are overwritten; callers check ShouldSkip first.
func (w *Writer) Write(ref types.PostReference, content types.PostContent) (types.Post, error) {
	post := w.Post(ref, content)

	if post.MarkdownPath != "" {
		data, err := RenderMarkdown(post, content.MarkdownBody)
		if err != nil {
			return post, err
		}
		if err := WriteFile(w.layout.Abs(post.MarkdownPath), data); err != nil {
			return post, err
		}
	}
	if post.HTMLPath != "" {
		data, err := RenderHTML(post, content.HTMLBody)
		if err != nil {
			return post, err
		}
		if err := WriteFile(w.layout.Abs(post.HTMLPath), data); err != nil {
			return post, err
		}
	}
	return post, nil
}

// Existing rebuilds the catalog record of a post whose files are already on
// disk, preferring the Markdown frontmatter when there is one.
func (w *Writer) Existing(ref types.PostReference, content types.PostContent) types.Post {
	post := w.Post(ref, content)
	if post.MarkdownPath == "" {
		return post
	}
	stored, _, err := ReadMarkdown(w.layout.Abs(post.MarkdownPath))
	if err != nil {
		return post
	}
	if !stored.FetchedAt.IsZero() {
		post.FetchedAt = stored.FetchedAt
	}
	return post
}

// WriteFile writes data to path through a temporary file in the same
// directory, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
