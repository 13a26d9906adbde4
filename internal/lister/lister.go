// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lister discovers the posts of a Substack publication.
//
// Sources are tried in order (archive API, sitemap, feed) until one yields
// posts. The result is deduplicated by URL, ordered newest first and capped
// at the requested limit.
package lister

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pdiddy/sub2md/internal/httputil"
	"github.com/pdiddy/sub2md/internal/logging"
	"github.com/pdiddy/sub2md/pkg/types"
)

const (
	defaultPageSize  = 12
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "sub2md/0.1"
)

// DefaultExcludedKeywords are path segments that never denote a post.
var DefaultExcludedKeywords = []string{"about", "archive", "podcast"}

// Source produces post references for a publication in listing order.
// Implementations add references to the collector and stop early once
// collector.full() reports true.
type Source interface {
	Name() string
	Collect(ctx context.Context, baseURL string, c *collector) error
}

// getter fetches a URL body. Failures are *types.FetchError.
type getter func(ctx context.Context, url string) ([]byte, error)

// Lister discovers post URLs for a publication.
type Lister struct {
	cfg     types.ListConfig
	log     logging.Logger
	sources []Source
}

// New creates a Lister that fetches through client. Zero config values
// take defaults.
func New(client *http.Client, cfg types.ListConfig, log logging.Logger) *Lister {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.ExcludedKeywords == nil {
		cfg.ExcludedKeywords = DefaultExcludedKeywords
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if log == nil {
		log = logging.Nop()
	}
	get := func(ctx context.Context, url string) ([]byte, error) {
		return httputil.Get(ctx, client, url, cfg.HTTPConfig)
	}
	return &Lister{
		cfg: cfg,
		log: log,
		sources: []Source{
			&archiveSource{get: get, pageSize: cfg.PageSize},
			&sitemapSource{get: get},
			&feedSource{get: get},
		},
	}
}

// List returns the post references of the publication at baseURL, newest
// first. A limit of 0 returns every post; otherwise exactly min(limit, total)
// references are returned.
//
// List fails with *types.FetchError when no source could be retrieved and
// with *types.ParseError when sources were retrieved but none had a
// recognizable post listing.
func List(ctx context.Context, baseURL string, limit int) ([]types.PostReference, error) {
	cfg := types.ListConfig{HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, MaxRetries: httputil.DefaultMaxRetries}}
	return New(httputil.NewClient(cfg.HTTPConfig), cfg, nil).List(ctx, baseURL, limit)
}

// List is the configurable form of the package-level List.
func (l *Lister) List(ctx context.Context, baseURL string, limit int) ([]types.PostReference, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0, got %d", limit)
	}
	base, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, &types.ParseError{URL: baseURL, Reason: "invalid publication URL", Err: err}
	}

	var (
		fetchErr   error
		parseErr   error
		recognized bool
	)
	for _, src := range l.sources {
		c := newCollector(limit, l.cfg.ExcludedKeywords)
		err := src.Collect(ctx, base, c)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil {
			var fe *types.FetchError
			if errors.As(err, &fe) {
				if fetchErr == nil {
					fetchErr = err
				}
			} else if parseErr == nil {
				parseErr = err
			}
			l.log.Debug("post source failed", "source", src.Name(), "url", base, "error", err)
			continue
		}
		recognized = true
		if c.len() == 0 {
			l.log.Debug("post source returned no posts", "source", src.Name(), "url", base)
			continue
		}

		refs := c.references()
		l.log.Info("discovered posts", "source", src.Name(), "url", base, "count", len(refs))
		return refs, nil
	}

	switch {
	case recognized:
		return []types.PostReference{}, nil
	case parseErr != nil:
		return nil, parseErr
	case fetchErr != nil:
		return nil, fetchErr
	}
	return nil, &types.ParseError{URL: base, Reason: "no post listing found"}
}

// collector deduplicates, filters and caps references as a source emits
// them.
type collector struct {
	limit    int
	keywords []string
	seen     map[string]struct{}
	refs     []types.PostReference
}

func newCollector(limit int, keywords []string) *collector {
	return &collector{
		limit:    limit,
		keywords: keywords,
		seen:     make(map[string]struct{}),
	}
}

// add records ref unless it is a duplicate or excluded. It reports whether
// the reference was kept.
func (c *collector) add(ref types.PostReference) bool {
	if ref.URL == "" || excluded(ref.URL, c.keywords) {
		return false
	}
	key := canonicalKey(ref.URL)
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.refs = append(c.refs, ref)
	return true
}

// full reports whether the limit has been reached.
func (c *collector) full() bool {
	return c.limit > 0 && len(c.refs) >= c.limit
}

func (c *collector) len() int { return len(c.refs) }

// references orders the collected posts newest first and applies the
// limit. Dated references are stable-sorted newest first among the slots
// they occupy; undated ones keep their listing position.
func (c *collector) references() []types.PostReference {
	refs := make([]types.PostReference, len(c.refs))
	copy(refs, c.refs)

	var slots []int
	var dated []types.PostReference
	for i, r := range refs {
		if r.PublishedAt != nil {
			slots = append(slots, i)
			dated = append(dated, r)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].PublishedAt.After(*dated[j].PublishedAt)
	})
	for k, i := range slots {
		refs[i] = dated[k]
	}

	if c.limit > 0 && len(refs) > c.limit {
		refs = refs[:c.limit]
	}
	for i := range refs {
		refs[i].Order = i
	}
	return refs
}
