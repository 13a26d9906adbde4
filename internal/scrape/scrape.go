// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape runs a full fetch of a publication: list the posts, then
// fetch, convert and write each one on a bounded worker pool, and finally
// update the catalog, its exports and the post index.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/sub2md/internal/cache"
	"github.com/pdiddy/sub2md/internal/catalog"
	"github.com/pdiddy/sub2md/internal/convert"
	"github.com/pdiddy/sub2md/internal/httputil"
	"github.com/pdiddy/sub2md/internal/index"
	"github.com/pdiddy/sub2md/internal/lister"
	"github.com/pdiddy/sub2md/internal/logging"
	"github.com/pdiddy/sub2md/internal/output"
	"github.com/pdiddy/sub2md/pkg/types"
)

const (
	// DefaultConcurrency is the number of posts fetched at once.
	DefaultConcurrency = 5

	// MaxConcurrency caps the worker pool.
	MaxConcurrency = 20
)

// Options carries the collaborators of a Pipeline. Zero values take
// defaults; a nil Catalog disables persistence and a nil Cache disables
// page caching.
type Options struct {
	Client    *http.Client
	Converter convert.Converter
	Catalog   *catalog.Store
	Cache     *cache.Cache
	Logger    logging.Logger
	Progress  io.Writer
}

// Pipeline fetches one publication.
type Pipeline struct {
	cfg     types.ScrapeConfig
	client  *http.Client
	lister  *lister.Lister
	conv    convert.Converter
	writer  *output.Writer
	catalog *catalog.Store
	cache   *cache.Cache
	log     logging.Logger

	mu       sync.Mutex
	progress io.Writer
	result   types.BatchResult
}

// New builds a pipeline for cfg. The publication URL is normalized and the
// writer name derived from it.
func New(cfg types.ScrapeConfig, opts Options) (*Pipeline, error) {
	base, err := lister.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("publication URL: %w", err)
	}
	cfg.BaseURL = base
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Concurrency > MaxConcurrency {
		cfg.Concurrency = MaxConcurrency
	}

	if opts.Client == nil {
		opts.Client = httputil.NewClient(cfg.List.HTTPConfig)
	}
	if opts.Converter == nil {
		opts.Converter = convert.Native{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}

	layout := output.NewLayout(cfg.Output.Dir, lister.WriterName(base))
	return &Pipeline{
		cfg:      cfg,
		client:   opts.Client,
		lister:   lister.New(opts.Client, cfg.List, opts.Logger),
		conv:     opts.Converter,
		writer:   output.NewWriter(layout, cfg.Output),
		catalog:  opts.Catalog,
		cache:    opts.Cache,
		log:      opts.Logger,
		progress: opts.Progress,
	}, nil
}

// LayoutFor returns the output layout a fetch of cfg writes into, so callers
// can open the catalog before building the pipeline.
func LayoutFor(cfg types.ScrapeConfig) (output.Layout, error) {
	base, err := lister.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return output.Layout{}, fmt.Errorf("publication URL: %w", err)
	}
	return output.NewLayout(cfg.Output.Dir, lister.WriterName(base)), nil
}

// Layout returns where the pipeline writes.
func (p *Pipeline) Layout() output.Layout { return p.writer.Layout() }

// Run lists the publication and processes every post. Only a listing
// failure is returned as an error; individual posts that fail are counted
// and logged. A cancelled context stops scheduling new posts and is
// reported after the summary.
func (p *Pipeline) Run(ctx context.Context) (types.BatchResult, error) {
	refs, err := p.lister.List(ctx, p.cfg.BaseURL, p.cfg.Limit)
	if err != nil {
		return types.BatchResult{}, fmt.Errorf("listing %s: %w", p.cfg.BaseURL, err)
	}
	p.log.Info("processing posts", "url", p.cfg.BaseURL, "count", len(refs), "concurrency", p.cfg.Concurrency)

	var runID string
	if p.catalog != nil {
		if runID, err = p.catalog.StartRun(ctx, p.cfg.BaseURL); err != nil {
			p.log.Warn("could not record run", "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p.process(gctx, ref, runID)
			return nil
		})
	}
	_ = g.Wait()

	result := p.snapshot()
	fmt.Fprintf(p.progress, "\n%s\n", result.Summary())

	p.finish(context.WithoutCancel(ctx), runID, result)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("fetch interrupted: %w", err)
	}
	return result, nil
}

type outcome int

const (
	outcomeConverted outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (p *Pipeline) process(ctx context.Context, ref types.PostReference, runID string) {
	if p.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			p.record(outcomeFailed, "failed:  %s (%v)", ref.URL, ctx.Err())
			return
		case <-time.After(p.cfg.Delay):
		}
	}

	if p.alreadyWritten(ctx, ref) {
		p.record(outcomeSkipped, "skipped: %s (already exists)", ref.URL)
		return
	}

	body, err := p.fetch(ctx, ref.URL)
	if err != nil {
		p.log.Warn("fetch failed", "url", ref.URL, "error", err)
		p.record(outcomeFailed, "failed:  %s (%v)", ref.URL, err)
		return
	}

	content, err := p.conv.Convert(bytes.NewReader(body))
	if err != nil {
		var pe *types.ParseError
		if errors.As(err, &pe) && pe.URL == "" {
			pe.URL = ref.URL
		}
		p.log.Warn("conversion failed", "url", ref.URL, "error", err)
		p.record(outcomeFailed, "failed:  %s (%v)", ref.URL, err)
		return
	}

	base := p.writer.BaseName(ref, content)
	if p.writer.ShouldSkip(base) {
		p.upsert(ctx, p.writer.Existing(ref, content), runID)
		p.record(outcomeSkipped, "skipped: %s (already exists)", base)
		return
	}

	post, err := p.writer.Write(ref, content)
	if err != nil {
		p.log.Error("write failed", "url", ref.URL, "error", err)
		p.record(outcomeFailed, "failed:  %s (%v)", ref.URL, err)
		return
	}
	p.upsert(ctx, post, runID)
	p.record(outcomeConverted, "fetched: %s -> %s", ref.URL, base)
}

// alreadyWritten reports whether the catalog knows the post and its files
// for the current mode are on disk, so it need not be downloaded again.
func (p *Pipeline) alreadyWritten(ctx context.Context, ref types.PostReference) bool {
	if p.catalog == nil || p.cfg.Output.Force {
		return false
	}
	rec, ok, err := p.catalog.Post(ctx, ref.URL)
	if err != nil || !ok {
		return false
	}
	return p.writer.ShouldSkip(output.BaseName(rec.URL, rec.Title, rec.PublishedAt))
}

// fetch returns the page body, from the cache when enabled.
func (p *Pipeline) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := p.cache.Get(url); ok {
		p.log.Debug("cache hit", "url", url)
		return body, nil
	}
	body, err := httputil.Get(ctx, p.client, url, p.cfg.List.HTTPConfig)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Put(url, body); err != nil {
		p.log.Warn("could not cache page", "url", url, "error", err)
	}
	return body, nil
}

func (p *Pipeline) upsert(ctx context.Context, post types.Post, runID string) {
	if p.catalog == nil {
		return
	}
	if err := p.catalog.Upsert(ctx, post, runID); err != nil {
		p.log.Warn("could not update catalog", "url", post.URL, "error", err)
	}
}

func (p *Pipeline) record(o outcome, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch o {
	case outcomeConverted:
		p.result.Converted++
	case outcomeSkipped:
		p.result.Skipped++
	case outcomeFailed:
		p.result.Failed++
	}
	fmt.Fprintf(p.progress, format+"\n", args...)
}

func (p *Pipeline) snapshot() types.BatchResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// finish records the run and refreshes exports and indexes. Failures here
// are logged; the posts themselves are already on disk.
func (p *Pipeline) finish(ctx context.Context, runID string, result types.BatchResult) {
	if p.catalog == nil {
		return
	}
	if runID != "" {
		if err := p.catalog.FinishRun(ctx, runID, result); err != nil {
			p.log.Warn("could not record run result", "error", err)
		}
	}
	if err := Publish(ctx, p.catalog, p.Layout(), p.cfg.Output.Mode, p.cfg.BaseURL); err != nil {
		p.log.Warn("could not refresh exports", "error", err)
	}
}

// Publish writes the catalog exports (data/<writer>.json and .yaml) and the
// post indexes from the catalog's current content.
func Publish(ctx context.Context, store *catalog.Store, layout output.Layout, mode types.OutputMode, publication string) error {
	if err := store.ExportJSON(ctx, publication, layout.ExportPath("json")); err != nil {
		return fmt.Errorf("exporting JSON: %w", err)
	}
	if err := store.ExportYAML(ctx, publication, layout.ExportPath("yaml")); err != nil {
		return fmt.Errorf("exporting YAML: %w", err)
	}
	posts, err := store.Posts(ctx)
	if err != nil {
		return err
	}
	if _, err := index.New(layout, mode, layout.Writer).Generate(posts); err != nil {
		return fmt.Errorf("generating index: %w", err)
	}
	return nil
}
