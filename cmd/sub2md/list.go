// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/sub2md/internal/httputil"
	"github.com/pdiddy/sub2md/internal/lister"
	"github.com/pdiddy/sub2md/pkg/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the posts of a publication without downloading them",
	Long: `List discovers post URLs through the archive API, falling back to the
sitemap and then the RSS feed, and prints them newest first.`,
	PreRunE: func(cmd *cobra.Command, args []string) error { return bindFlags(cmd) },
	RunE:    runList,
}

func init() {
	listCmd.Flags().StringP("url", "u", "", "publication URL")
	listCmd.Flags().IntP("number", "n", 0, "number of posts to list (0 for all)")
	listCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	listCmd.Flags().Int("retries", defaultRetries, "retries per request")
	listCmd.Flags().Bool("json", false, "output references as JSON")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	url := viper.GetString("url")
	if url == "" {
		return fmt.Errorf("--url is required")
	}
	cfg := types.ListConfig{HTTPConfig: httpConfig()}
	refs, err := lister.New(httputil.NewClient(cfg.HTTPConfig), cfg, logger).
		List(cmd.Context(), url, viper.GetInt("number"))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(refs)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, ref := range refs {
		date := "-"
		if ref.PublishedAt != nil {
			date = ref.PublishedAt.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", date, ref.Title, ref.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d post(s)\n", len(refs))
	return nil
}
