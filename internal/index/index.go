// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds the per-publication post index: index.md next to the
// Markdown files and index.html next to the HTML pages, newest post first.
package index

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/sub2md/internal/output"
	"github.com/pdiddy/sub2md/pkg/types"
)

// Generator writes index pages for one publication.
type Generator struct {
	layout output.Layout
	mode   types.OutputMode
	title  string
	md     goldmark.Markdown
}

// New returns a generator for layout. title heads both pages; the writer
// name is used when it is empty.
func New(layout output.Layout, mode types.OutputMode, title string) *Generator {
	if title == "" {
		title = layout.Writer
	}
	if mode == "" {
		mode = types.OutputBoth
	}
	return &Generator{
		layout: layout,
		mode:   mode,
		title:  title,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Generate writes the indexes the output mode asks for and returns the
// paths written.
func (g *Generator) Generate(posts []types.Post) ([]string, error) {
	sorted := Sort(posts)
	var written []string

	if g.mode.WantsMarkdown() {
		doc := Markdown(g.title, sorted, func(p types.Post) string { return p.MarkdownPath })
		p := g.layout.MarkdownIndexPath()
		if err := output.WriteFile(p, []byte(doc)); err != nil {
			return written, fmt.Errorf("writing Markdown index: %w", err)
		}
		written = append(written, p)
	}

	if g.mode.WantsHTML() {
		doc := Markdown(g.title, sorted, func(p types.Post) string { return p.HTMLPath })
		page, err := g.HTML(doc)
		if err != nil {
			return written, err
		}
		p := g.layout.HTMLIndexPath()
		if err := output.WriteFile(p, page); err != nil {
			return written, fmt.Errorf("writing HTML index: %w", err)
		}
		written = append(written, p)
	}
	return written, nil
}

// Sort returns posts newest first. Undated posts follow, ordered by title.
func Sort(posts []types.Post) []types.Post {
	out := make([]types.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PublishedAt, out[j].PublishedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].Title < out[j].Title
	})
	return out
}

// Markdown renders the index as a GFM table. target returns the catalog
// path of the artifact to link; posts without one are left out. Links are
// relative to the index, which sits in the same directory as the posts.
func Markdown(title string, posts []types.Post, target func(types.Post) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeCell(title))

	var rows []string
	for _, p := range posts {
		t := target(p)
		if t == "" {
			continue
		}
		name := p.Title
		if name == "" {
			name = p.Slug
		}
		link := fmt.Sprintf("[%s](%s)", escapeCell(name), path.Base(t))
		if p.Paid {
			link += " (paid)"
		}
		likes := ""
		if p.LikeCount > 0 {
			likes = fmt.Sprint(p.LikeCount)
		}
		rows = append(rows, fmt.Sprintf("| %s | %s | %s |", p.DateString(), link, likes))
	}

	if len(rows) == 0 {
		b.WriteString("No posts yet.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d posts\n\n", len(rows))
	b.WriteString("| Date | Title | Likes |\n| --- | --- | --- |\n")
	for _, r := range rows {
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, serif; line-height: 1.5; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.3rem 0.6rem; border-bottom: 1px solid #ddd; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders an index Markdown document into a standalone page.
func (g *Generator) HTML(doc string) ([]byte, error) {
	var body bytes.Buffer
	if err := g.md.Convert([]byte(doc), &body); err != nil {
		return nil, fmt.Errorf("rendering index Markdown: %w", err)
	}
	var page bytes.Buffer
	err := indexTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{g.title, template.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("rendering index page: %w", err)
	}
	return page.Bytes(), nil
}

var cellEscaper = strings.NewReplacer("|", `\|`, "[", `\[`, "]", `\]`, "\n", " ")

func escapeCell(s string) string {
	return cellEscaper.Replace(s)
}
