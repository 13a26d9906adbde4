// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lister

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/sub2md/pkg/types"
)

const (
	archivePath = "/api/v1/archive"
	sitemapPath = "/sitemap.xml"
	feedPath    = "/feed"

	// maxArchivePages guards against an endpoint that never runs dry.
	maxArchivePages = 500

	// maxChildSitemaps bounds how many sitemaps of an index are followed.
	maxChildSitemaps = 20
)

// --- archive API ---

// archiveSource pages through the publication's archive endpoint, which
// lists posts newest first.
type archiveSource struct {
	get      getter
	pageSize int
}

type archivePost struct {
	CanonicalURL string `json:"canonical_url"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	PostDate     string `json:"post_date"`
}

func (s *archiveSource) Name() string { return "archive" }

// Collect requests pages until one comes back empty, short, or made only of
// URLs already seen, or until the collector is full.
func (s *archiveSource) Collect(ctx context.Context, baseURL string, c *collector) error {
	for page := 0; page < maxArchivePages; page++ {
		offset := page * s.pageSize
		url := fmt.Sprintf("%s%s?sort=new&offset=%d&limit=%d", baseURL, archivePath, offset, s.pageSize)

		body, err := s.get(ctx, url)
		if err != nil {
			return err
		}

		var posts []archivePost
		if err := json.Unmarshal(body, &posts); err != nil {
			return &types.ParseError{URL: url, Reason: "archive response is not a post list", Err: err}
		}

		added := 0
		for _, p := range posts {
			link := p.CanonicalURL
			if link == "" && p.Slug != "" {
				link = baseURL + postPathPrefix + p.Slug
			}
			ref := types.PostReference{
				URL:         cleanPostURL(link),
				Title:       strings.TrimSpace(p.Title),
				PublishedAt: parseTimestamp(p.PostDate),
			}
			if c.add(ref) {
				added++
			}
			if c.full() {
				return nil
			}
		}

		if len(posts) < s.pageSize || added == 0 {
			return nil
		}
	}
	return nil
}

// --- sitemap ---

// sitemapSource reads /sitemap.xml, following one level of sitemap index.
type sitemapSource struct {
	get getter
}

type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []sitemapEntry `xml:"url"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

func (s *sitemapSource) Name() string { return "sitemap" }

func (s *sitemapSource) Collect(ctx context.Context, baseURL string, c *collector) error {
	url := baseURL + sitemapPath
	doc, err := s.fetch(ctx, url)
	if err != nil {
		return err
	}

	switch doc.XMLName.Local {
	case "urlset":
		s.addEntries(doc.URLs, c)
	case "sitemapindex":
		for i, child := range doc.Sitemaps {
			if i >= maxChildSitemaps {
				break
			}
			childDoc, err := s.fetch(ctx, strings.TrimSpace(child.Loc))
			if err != nil {
				return err
			}
			s.addEntries(childDoc.URLs, c)
		}
	default:
		return &types.ParseError{URL: url, Reason: fmt.Sprintf("unexpected sitemap root <%s>", doc.XMLName.Local)}
	}
	return nil
}

func (s *sitemapSource) fetch(ctx context.Context, url string) (*sitemapDoc, error) {
	body, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var doc sitemapDoc
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&doc); err != nil {
		return nil, &types.ParseError{URL: url, Reason: "sitemap is not valid XML", Err: err}
	}
	return &doc, nil
}

func (s *sitemapSource) addEntries(entries []sitemapEntry, c *collector) {
	for _, e := range entries {
		loc := strings.TrimSpace(e.Loc)
		if !isPostURL(loc) {
			continue
		}
		c.add(types.PostReference{
			URL:         cleanPostURL(loc),
			PublishedAt: parseTimestamp(e.LastMod),
		})
	}
}

// --- RSS/Atom feed ---

// feedSource reads the publication's /feed.
type feedSource struct {
	get getter
}

func (s *feedSource) Name() string { return "feed" }

func (s *feedSource) Collect(ctx context.Context, baseURL string, c *collector) error {
	url := baseURL + feedPath
	body, err := s.get(ctx, url)
	if err != nil {
		return err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return &types.ParseError{URL: url, Reason: "feed is not RSS or Atom", Err: err}
	}

	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		pub := item.PublishedParsed
		if pub == nil {
			pub = item.UpdatedParsed
		}
		c.add(types.PostReference{
			URL:         cleanPostURL(link),
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: pub,
		})
	}
	return nil
}

// timestampLayouts are the date formats seen in archive responses and
// sitemap lastmod values.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// parseTimestamp returns nil for empty or unparseable values.
func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
