// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/sub2md/internal/lister"
	"github.com/pdiddy/sub2md/internal/scrape"
	"github.com/pdiddy/sub2md/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetries   = 3
	defaultNumber    = 10
	defaultDirectory = "./output"
	defaultUserAgent = "sub2md/0.1"
)

// addPublicationFlags registers the flags that name a publication and its
// output directory.
func addPublicationFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("url", "u", "", "publication URL, e.g. https://example.substack.com")
	cmd.Flags().StringP("directory", "d", defaultDirectory, "output directory")
	cmd.Flags().Bool("only-md", false, "write Markdown files only")
	cmd.Flags().Bool("only-html", false, "write HTML pages only")
	cmd.MarkFlagsMutuallyExclusive("only-md", "only-html")
}

// addFetchFlags registers the flags shared by fetch and watch.
func addFetchFlags(cmd *cobra.Command) {
	addPublicationFlags(cmd)
	cmd.Flags().IntP("number", "n", defaultNumber, "number of posts to fetch (0 for all)")
	cmd.Flags().Int("concurrency", scrape.DefaultConcurrency, "posts fetched in parallel (1-20)")
	cmd.Flags().Int("retries", defaultRetries, "retries per request on network errors, 429 and 5xx (0 disables)")
	cmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().Duration("delay", 0, "pause before each post download")
	cmd.Flags().Bool("force", false, "overwrite posts that were already saved")
	cmd.Flags().Bool("cache", false, "keep downloaded pages under <directory>/cache and reuse them")
	cmd.Flags().String("backend", string(types.BackendNative), "conversion backend: native or pandoc")
}

// bindFlags binds the running command's flags to viper under their own
// names, so sub2md.yaml and SUB2MD_* variables can provide them.
func bindFlags(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = viper.BindPFlag(f.Name, f)
		_ = viper.BindEnv(f.Name, "SUB2MD_"+strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")))
	})
	return err
}

// outputMode maps --only-md and --only-html to an OutputMode.
func outputMode() types.OutputMode {
	switch {
	case viper.GetBool("only-md"):
		return types.OutputMarkdown
	case viper.GetBool("only-html"):
		return types.OutputHTML
	}
	return types.OutputBoth
}

func httpConfig() types.HTTPConfig {
	return types.HTTPConfig{
		Timeout:       viper.GetDuration("timeout"),
		UserAgent:     defaultUserAgent,
		MaxRetries:    viper.GetInt("retries"),
		SessionCookie: loadedSecrets.SessionCookie(),
	}
}

// scrapeConfig assembles and validates the fetch configuration from flags,
// config file and environment.
func scrapeConfig() (types.ScrapeConfig, error) {
	cfg := types.ScrapeConfig{
		BaseURL:     viper.GetString("url"),
		Limit:       viper.GetInt("number"),
		Concurrency: viper.GetInt("concurrency"),
		Delay:       viper.GetDuration("delay"),
		List: types.ListConfig{
			HTTPConfig: httpConfig(),
		},
		Convert: types.ConvertConfig{
			Backend: types.ConvertBackend(viper.GetString("backend")),
		},
		Output: types.OutputConfig{
			Dir:   viper.GetString("directory"),
			Mode:  outputMode(),
			Force: viper.GetBool("force"),
			Cache: viper.GetBool("cache"),
		},
	}
	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("--url is required")
	}
	base, err := lister.NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return cfg, err
	}
	cfg.BaseURL = base
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
