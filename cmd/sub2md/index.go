// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sub2md/internal/catalog"
	"github.com/pdiddy/sub2md/internal/lister"
	"github.com/pdiddy/sub2md/internal/scrape"
	"github.com/pdiddy/sub2md/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the post indexes and catalog exports",
	Long: `Index regenerates index.md, index.html and the JSON and YAML catalog
exports of a publication from its catalog database, without fetching.`,
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindFlags(cmd) },
	RunE:    runIndex,
}

func init() {
	addPublicationFlags(indexCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if viper.GetString("url") == "" {
		return fmt.Errorf("--url is required")
	}
	url, err := lister.NormalizeBaseURL(viper.GetString("url"))
	if err != nil {
		return err
	}
	cfg := types.ScrapeConfig{
		BaseURL: url,
		Output:  types.OutputConfig{Dir: viper.GetString("directory"), Mode: outputMode()},
	}
	layout, err := scrape.LayoutFor(cfg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(layout.CatalogPath()); err != nil {
		return fmt.Errorf("no catalog at %s; run fetch first: %w", layout.CatalogPath(), err)
	}

	store, err := catalog.Open(layout.CatalogPath())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := scrape.Publish(cmd.Context(), store, layout, cfg.Output.Mode, url); err != nil {
		return err
	}
	count, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d post(s) in %s\n", count, layout.Root)
	return nil
}
