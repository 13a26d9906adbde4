// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/sub2md/internal/convert"
	"github.com/pdiddy/sub2md/internal/output"
	"github.com/pdiddy/sub2md/pkg/types"
)

// FileOptions control ConvertFiles.
type FileOptions struct {
	// OutDir receives <name>.md for each input. Empty means the Markdown
	// bodies are written to Stdout, separated by a blank line.
	OutDir string

	// Force overwrites existing files in OutDir.
	Force bool

	Stdout   io.Writer
	Progress io.Writer
}

// ConvertFiles converts saved post pages from disk. Each file is handled
// independently; failures are reported on Progress and counted.
func ConvertFiles(conv convert.Converter, paths []string, opts FileOptions) types.BatchResult {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}

	var result types.BatchResult
	var printed bool
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		var dest string
		if opts.OutDir != "" {
			dest = filepath.Join(opts.OutDir, name+".md")
			if !opts.Force && fileExists(dest) {
				fmt.Fprintf(opts.Progress, "skipped: %s (already exists)\n", path)
				result.Skipped++
				continue
			}
		}

		content, err := convertFile(conv, path)
		if err != nil {
			fmt.Fprintf(opts.Progress, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}

		if dest == "" {
			if printed {
				fmt.Fprintln(opts.Stdout)
			}
			fmt.Fprintln(opts.Stdout, content.MarkdownBody)
			printed = true
			result.Converted++
			continue
		}

		title := content.Title
		if title == "" {
			title = output.Untitled
		}
		post := types.Post{
			Title:       title,
			Subtitle:    content.Subtitle,
			Author:      content.Author,
			PublishedAt: content.PublishedAt,
			LikeCount:   content.LikeCount,
			Paid:        content.Paid,
		}
		data, err := output.RenderMarkdown(post, content.MarkdownBody)
		if err == nil {
			err = output.WriteFile(dest, data)
		}
		if err != nil {
			fmt.Fprintf(opts.Progress, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(opts.Progress, "converted: %s -> %s\n", path, dest)
		result.Converted++
	}

	fmt.Fprintf(opts.Progress, "\n%s\n", result.Summary())
	return result
}

func convertFile(conv convert.Converter, path string) (types.PostContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.PostContent{}, err
	}
	defer f.Close()

	content, err := conv.Convert(f)
	if err != nil {
		return types.PostContent{}, fmt.Errorf("converting %s: %w", path, err)
	}
	return content, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
