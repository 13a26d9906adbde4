// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/sub2md/pkg/types"
)

// frontMatter is the YAML header of every Markdown post file.
type frontMatter struct {
	Title     string `yaml:"title"`
	Subtitle  string `yaml:"subtitle,omitempty"`
	Author    string `yaml:"author,omitempty"`
	Date      string `yaml:"date,omitempty"`
	URL       string `yaml:"url"`
	Likes     int    `yaml:"likes"`
	Paid      bool   `yaml:"paid"`
	FetchedAt string `yaml:"fetched_at,omitempty"`
}

// RenderMarkdown builds the Markdown file for post: frontmatter, a title
// heading unless the body already opens with one, then the body.
func RenderMarkdown(post types.Post, body string) ([]byte, error) {
	fm := frontMatter{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Author:   post.Author,
		Date:     post.DateString(),
		URL:      post.URL,
		Likes:    post.LikeCount,
		Paid:     post.Paid,
	}
	if !post.FetchedAt.IsZero() {
		fm.FetchedAt = post.FetchedAt.UTC().Format(time.RFC3339)
	}
	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	body = strings.TrimSpace(body)
	if post.Title != "" && !strings.HasPrefix(body, "# ") {
		fmt.Fprintf(&b, "# %s\n\n", post.Title)
		if post.Subtitle != "" {
			fmt.Fprintf(&b, "*%s*\n\n", post.Subtitle)
		}
	}
	b.WriteString(body)
	b.WriteString("\n")
	return b.Bytes(), nil
}

// ReadMarkdown parses a file written by RenderMarkdown back into a Post and
// its body.
func ReadMarkdown(path string) (types.Post, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.Post{}, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var fm frontMatter
	body, err := frontmatter.Parse(f, &fm)
	if err != nil {
		return types.Post{}, "", fmt.Errorf("parsing frontmatter of %s: %w", path, err)
	}

	post := types.Post{
		URL:       fm.URL,
		Slug:      Slug(fm.URL, fm.Title),
		Title:     fm.Title,
		Subtitle:  fm.Subtitle,
		Author:    fm.Author,
		LikeCount: fm.Likes,
		Paid:      fm.Paid,
	}
	if t, err := time.Parse(time.DateOnly, fm.Date); err == nil {
		post.PublishedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, fm.FetchedAt); err == nil {
		post.FetchedAt = t
	}
	return post, strings.TrimSpace(string(body)), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Author}}
<meta name="author" content="{{.Author}}">
{{- end}}
<style>
body { max-width: 42rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, serif; line-height: 1.6; }
img, video, iframe { max-width: 100%; height: auto; }
pre { overflow-x: auto; }
.meta, .source { color: #666; font-size: 0.9rem; }
</style>
</head>
<body>
<article>
<header>
<h1>{{.Title}}</h1>
{{- if .Subtitle}}
<p class="subtitle">{{.Subtitle}}</p>
{{- end}}
<p class="meta">
{{- if .Author}}{{.Author}}{{end}}
{{- if .Date}} <time datetime="{{.Date}}">{{.Date}}</time>{{end}}
{{- if .Likes}} · {{.Likes}} likes{{end}}
{{- if .Paid}} · paid{{end}}</p>
{{- if .URL}}
<p class="source"><a href="{{.URL}}">Original post</a></p>
{{- end}}
</header>
{{.Body}}
</article>
</body>
</html>
`))

type pageData struct {
	Title    string
	Subtitle string
	Author   string
	Date     string
	Likes    int
	Paid     bool
	URL      string
	Body     template.HTML
}

// RenderHTML builds a standalone HTML page around the cleaned body markup.
func RenderHTML(post types.Post, bodyHTML string) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Author:   post.Author,
		Date:     post.DateString(),
		Likes:    post.LikeCount,
		Paid:     post.Paid,
		URL:      post.URL,
		Body:     template.HTML(bodyHTML),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering HTML page: %w", err)
	}
	return buf.Bytes(), nil
}
