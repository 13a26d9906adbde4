// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// PostReference identifies one discoverable post of a publication.
// References are unique by URL; Order is the position in the newest-first
// listing returned by the lister.
type PostReference struct {
	URL   string `json:"url" yaml:"url"`
	Order int    `json:"order" yaml:"order"`

	// Title is the listing title when the source provides one.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// PublishedAt is nil when the source carries no timestamp.
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// PostContent is everything derived from one fetched post page.
type PostContent struct {
	Title       string     `json:"title" yaml:"title"`
	Subtitle    string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Author      string     `json:"author,omitempty" yaml:"author,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	LikeCount   int        `json:"like_count" yaml:"like_count"`
	Paid        bool       `json:"paid" yaml:"paid"`

	// HTMLBody is the cleaned article body markup.
	HTMLBody string `json:"-" yaml:"-"`

	// MarkdownBody is the Markdown rendering of HTMLBody.
	MarkdownBody string `json:"-" yaml:"-"`
}

// Post is the catalog record for a processed post.
type Post struct {
	URL          string     `json:"url" yaml:"url"`
	Slug         string     `json:"slug" yaml:"slug"`
	Title        string     `json:"title" yaml:"title"`
	Subtitle     string     `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Author       string     `json:"author,omitempty" yaml:"author,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	LikeCount    int        `json:"like_count" yaml:"like_count"`
	Paid         bool       `json:"paid" yaml:"paid"`
	MarkdownPath string     `json:"markdown_path,omitempty" yaml:"markdown_path,omitempty"`
	HTMLPath     string     `json:"html_path,omitempty" yaml:"html_path,omitempty"`
	FetchedAt    time.Time  `json:"fetched_at" yaml:"fetched_at"`
}

// DateString returns the publication date as YYYY-MM-DD, or "" when unknown.
func (p Post) DateString() string {
	if p.PublishedAt == nil {
		return ""
	}
	return p.PublishedAt.UTC().Format(time.DateOnly)
}

// OutputMode selects which artifacts are persisted for each post.
type OutputMode string

const (
	OutputBoth     OutputMode = "both"
	OutputMarkdown OutputMode = "md"
	OutputHTML     OutputMode = "html"
)

// ParseOutputMode maps a CLI value to an OutputMode. The empty string yields
// OutputBoth.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return OutputBoth, nil
	case "md", "markdown":
		return OutputMarkdown, nil
	case "html":
		return OutputHTML, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want both, md, or html)", s)
}

// WantsMarkdown reports whether Markdown files are written in this mode.
func (m OutputMode) WantsMarkdown() bool {
	return m == OutputBoth || m == OutputMarkdown
}

// WantsHTML reports whether HTML files are written in this mode.
func (m OutputMode) WantsHTML() bool {
	return m == OutputBoth || m == OutputHTML
}
