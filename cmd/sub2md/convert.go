// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/sub2md/internal/scrape"
	"github.com/pdiddy/sub2md/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert saved Substack post pages to Markdown",
	Long: `Convert reads post pages saved as HTML and converts their article body
to Markdown. Without --out-dir the Markdown is written to stdout; with it each
input becomes <out-dir>/<name>.md with YAML frontmatter.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("out-dir", "", "directory for converted files (default: stdout)")
	convertCmd.Flags().String("backend", string(types.BackendNative), "conversion backend: native or pandoc")
	convertCmd.Flags().Bool("force", false, "overwrite existing files in --out-dir")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	backend, _ := cmd.Flags().GetString("backend")
	outDir, _ := cmd.Flags().GetString("out-dir")
	force, _ := cmd.Flags().GetBool("force")

	cfg := types.ConvertConfig{Backend: types.ConvertBackend(backend)}
	if err := cfg.Validate(); err != nil {
		return err
	}
	conv, err := newConverter(cfg)
	if err != nil {
		return err
	}

	result := scrape.ConvertFiles(conv, args, scrape.FileOptions{
		OutDir:   outDir,
		Force:    force,
		Stdout:   os.Stdout,
		Progress: os.Stderr,
	})
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}
