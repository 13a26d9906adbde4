// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sub2md/internal/cache"
	"github.com/pdiddy/sub2md/internal/catalog"
	"github.com/pdiddy/sub2md/internal/container"
	"github.com/pdiddy/sub2md/internal/convert"
	"github.com/pdiddy/sub2md/internal/scrape"
	"github.com/pdiddy/sub2md/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:     "fetch",
	Aliases: []string{"scrape"},
	Short:   "Download the posts of a publication as Markdown and HTML",
	Long: `Fetch lists the posts of a Substack publication, newest first, downloads
up to --number of them and writes each as Markdown with YAML frontmatter and
as a standalone HTML page. Posts already saved are skipped unless --force is
given. The catalog under <directory>/data is updated after every run, along
with its JSON and YAML exports and the post indexes.`,
	Example: `  sub2md fetch -u https://example.substack.com -n 20
  sub2md fetch -u example.substack.com --only-md --concurrency 10`,
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindFlags(cmd) },
	RunE:    runFetch,
}

func init() {
	addFetchFlags(fetchCmd)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := scrapeConfig()
	if err != nil {
		return err
	}
	result, err := fetchPublication(cmd.Context(), cfg, os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d post(s) failed", result.Failed)
	}
	return nil
}

// fetchPublication runs one fetch of cfg, opening the catalog, cache and
// converter it needs.
func fetchPublication(ctx context.Context, cfg types.ScrapeConfig, progress io.Writer) (types.BatchResult, error) {
	layout, err := scrape.LayoutFor(cfg)
	if err != nil {
		return types.BatchResult{}, err
	}

	conv, err := newConverter(cfg.Convert)
	if err != nil {
		return types.BatchResult{}, err
	}

	store, err := catalog.Open(layout.CatalogPath())
	if err != nil {
		return types.BatchResult{}, err
	}
	defer store.Close()

	var pageCache *cache.Cache
	if cfg.Output.Cache {
		pageCache = cache.New(layout.CacheDir())
	}

	pipeline, err := scrape.New(cfg, scrape.Options{
		Converter: conv,
		Catalog:   store,
		Cache:     pageCache,
		Logger:    logger,
		Progress:  progress,
	})
	if err != nil {
		return types.BatchResult{}, err
	}
	logger.Info("fetching publication", "url", cfg.BaseURL, "limit", cfg.Limit, "output", layout.Root)
	return pipeline.Run(ctx)
}

// newConverter returns the converter for cfg, detecting a container
// runtime only when the pandoc backend needs one.
func newConverter(cfg types.ConvertConfig) (convert.Converter, error) {
	if cfg.Backend != types.BackendPandoc {
		return convert.New(cfg, nil)
	}
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	return convert.New(cfg, rt)
}
