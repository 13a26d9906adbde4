// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// Untitled is the title of a post that names none, neither on its page
// nor in the listing.
const Untitled = "Untitled"

const (
	postPathPrefix = "/p/"
	fallbackSlug   = "post"
	maxSlugLen     = 80
)

// Slug returns the file-safe slug of a post: the /p/<slug> segment of its
// URL when present, otherwise the slugified title.
func Slug(postURL, title string) string {
	if s := normalizeSlug(urlSlug(postURL)); s != "" {
		return s
	}
	if s := normalizeSlug(title); s != "" {
		return s
	}
	return fallbackSlug
}

// BaseName is the file name shared by a post's artifacts without extension:
// YYYY-MM-DD_<slug> when the date is known, else <slug>.
func BaseName(postURL, title string, published *time.Time) string {
	s := Slug(postURL, title)
	if published == nil {
		return s
	}
	return published.UTC().Format(time.DateOnly) + "_" + s
}

func urlSlug(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	i := strings.LastIndex(p, postPathPrefix)
	if i < 0 {
		if p == "" {
			return ""
		}
		return path.Base(p)
	}
	return p[i+len(postPathPrefix):]
}

func normalizeSlug(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	normalized, err := slug.Normalize(s)
	if err != nil {
		return ""
	}
	normalized = strings.Trim(normalized, "-")
	if len(normalized) > maxSlugLen {
		normalized = strings.TrimRight(normalized[:maxSlugLen], "-")
	}
	return normalized
}
