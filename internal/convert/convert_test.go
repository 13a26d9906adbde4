// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sub2md/pkg/types"
)

const substackPage = `<!DOCTYPE html>
<html><head>
<title>Ignored - by Jane</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description">
<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2024-03-05T10:00:00.000Z">
</head><body>
<article>
<h1 class="post-title">My Post</h1>
<h3 class="subtitle">A subtitle</h3>
<time datetime="2024-03-04T09:00:00.000Z">Mar 4, 2024</time>
<div class="post-ufi-button"><div class="label">42</div></div>
<div class="available-content"><div class="body markup">
<p>First <em>emphasis</em> and <strong>bold</strong>.</p>
<p> </p>
<div class="subscription-widget-wrap"><p>Subscribe now</p><form><input type="email"></form></div>
<ul><li>One</li><li>Two<ul><li>Nested</li></ul></li></ul>
<ol start="3"><li>Three</li><li>Four</li></ol>
<pre><code class="language-go">fmt.Println("a*b")
</code></pre>
<blockquote><p>Quoted</p></blockquote>
<figure><a class="image-link" href="https://cdn.example.com/big.png"><img src="https://cdn.example.com/small.png" alt="A chart"><div class="image-link-expand"><button>Expand</button></div></a><figcaption>Caption</figcaption></figure>
<iframe src="https://www.youtube.com/embed/xyz"></iframe>
<script>alert(1)</script>
<p>Use <code>go test</code> with snake_case, see <a href="https://go.dev/doc">the docs</a>.</p>
</div></div>
</article>
</body></html>`

// substackMarkdown lists what the body of substackPage renders to.
var substackMarkdown = []string{
	"First *emphasis* and **bold**.",
	"- One",
	"- Nested",
	"3. Three",
	"4. Four",
	"```go\nfmt.Println(\"a*b\")\n```",
	"> Quoted",
	"[![A chart](https://cdn.example.com/small.png)](https://cdn.example.com/big.png)",
	"*Caption*",
	"[Embedded content](https://www.youtube.com/embed/xyz)",
	"[the docs](https://go.dev/doc)",
}

func TestConvert_MinimalDocument(t *testing.T) {
	got, err := Convert(`<h1>Title</h1><p>Hello <a href="https://x.com">x</a></p>`)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nHello [x](https://x.com)", got.MarkdownBody)
	assert.Equal(t, "Title", got.Title)
}

func TestConvert_SubstackPage(t *testing.T) {
	got, err := Convert(substackPage)
	require.NoError(t, err)

	for _, want := range substackMarkdown {
		assert.Contains(t, got.MarkdownBody, want)
	}
	tree := parseMarkdown(t, got.MarkdownBody)
	assert.Contains(t, tree.text, "snake_case")
	assert.Contains(t, tree.code, "go test")
	assert.NotContains(t, got.MarkdownBody, "Subscribe now")
	assert.NotContains(t, got.MarkdownBody, "alert(1)")
	assert.Equal(t, "My Post", got.Title)
	assert.Equal(t, "A subtitle", got.Subtitle)
	assert.Equal(t, "Jane Doe", got.Author)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), *got.PublishedAt)
	assert.Equal(t, 42, got.LikeCount)
	assert.False(t, got.Paid)

	assert.Contains(t, got.HTMLBody, "<p>First <em>emphasis</em>")
	assert.NotContains(t, got.HTMLBody, "<script")
	assert.NotContains(t, got.HTMLBody, "Subscribe now")
	assert.NotContains(t, got.HTMLBody, "Expand")
}

func TestConvert_KeepsEveryLinkAndImage(t *testing.T) {
	got, err := Convert(substackPage)
	require.NoError(t, err)
	for _, target := range []string{
		"https://cdn.example.com/big.png",
		"https://cdn.example.com/small.png",
		"https://www.youtube.com/embed/xyz",
		"https://go.dev/doc",
	} {
		assert.Contains(t, got.MarkdownBody, target)
	}
}

func TestConvert_Deterministic(t *testing.T) {
	first, err := Convert(substackPage)
	require.NoError(t, err)
	second, err := Convert(substackPage)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvert_MetadataFallbacks(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="From OG">
<meta property="og:description" content="OG sub">
<script type="application/ld+json">[{"@type":"Person"},{"@type":"NewsArticle","datePublished":"2023-11-02T08:00:00+00:00"}]</script>
</head><body><div class="post-content"><p>Body text.</p></div>
<div class="paywall"><p>Keep reading with a paid subscription</p></div>
<div class="like-count">1.2K</div></body></html>`

	got, err := Convert(page)
	require.NoError(t, err)
	assert.Equal(t, "Body text.", got.MarkdownBody)
	assert.Equal(t, "From OG", got.Title)
	assert.Equal(t, "OG sub", got.Subtitle)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, time.Date(2023, 11, 2, 8, 0, 0, 0, time.UTC), *got.PublishedAt)
	assert.True(t, got.Paid)
	assert.Equal(t, 1200, got.LikeCount)
}

func TestConvert_NoTitleLeavesItEmpty(t *testing.T) {
	got, err := Convert(`<html><body><article><p>only text</p></article></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, got.Title)
	assert.Equal(t, "only text", got.MarkdownBody)
}

func TestConvert_PublishedMetaFallback(t *testing.T) {
	page := `<html><head><title>T</title>
<meta property="article:published_time" content="2022-07-01">
</head><body><p>x</p></body></html>`

	got, err := Convert(page)
	require.NoError(t, err)
	assert.Equal(t, "T", got.Title)
	require.NotNil(t, got.PublishedAt)
	assert.Equal(t, "2022-07-01", got.PublishedAt.Format(time.DateOnly))
}

func TestConvert_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"no content elements", `<html><head><title>x</title></head><body><div>   </div></body></html>`},
		{"only empty paragraphs", `<html><body><div class="body markup"><p> </p><p></p></div></body></html>`},
		{"only scripts", `<html><body><article><script>var x = 1;</script></article></body></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.page)
			var pe *types.ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

// fakeRuntime implements container.Runtime for converter tests.
type fakeRuntime struct {
	imageErr error
	runErr   error
	output   string
	gotImage string
	gotArgs  []string
	gotInput string
}

func (f *fakeRuntime) Name() string             { return "fake" }
func (f *fakeRuntime) Available() bool          { return true }
func (f *fakeRuntime) ImageExists(string) error { return f.imageErr }
func (f *fakeRuntime) Run(image string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.gotImage = image
	f.gotArgs = args
	data, _ := io.ReadAll(stdin)
	f.gotInput = string(data)
	if f.runErr != nil {
		return f.runErr
	}
	_, err := io.WriteString(stdout, f.output)
	return err
}

func TestPandocConverter(t *testing.T) {
	rt := &fakeRuntime{output: "Converted by pandoc\n"}
	c, err := NewPandocConverter(rt)
	require.NoError(t, err)

	got, err := c.Convert(strings.NewReader(substackPage))
	require.NoError(t, err)
	assert.Equal(t, "Converted by pandoc", got.MarkdownBody)
	assert.Equal(t, "My Post", got.Title)
	assert.Equal(t, imagePandoc, rt.gotImage)
	assert.Equal(t, pandocArgs, rt.gotArgs)
	assert.Contains(t, rt.gotInput, "<p>First <em>emphasis</em>")
	assert.NotContains(t, rt.gotInput, "<script")
	assert.NotContains(t, rt.gotInput, "Subscribe now")
}

func TestPandocConverter_GetsLinksLiftedFromCode(t *testing.T) {
	rt := &fakeRuntime{output: "ok"}
	c, err := NewPandocConverter(rt)
	require.NoError(t, err)

	page := `<html><body><article><pre>see <a href="https://lost.example/x">here</a></pre></article></body></html>`
	got, err := c.Convert(strings.NewReader(page))
	require.NoError(t, err)

	assert.Contains(t, rt.gotInput, "<pre>see here</pre>")
	assert.Contains(t, rt.gotInput, `<p><a href="https://lost.example/x">here</a></p>`)
	assert.Contains(t, got.HTMLBody, `<pre>see <a href="https://lost.example/x">here</a></pre>`)
}

func TestPandocConverter_Failures(t *testing.T) {
	_, err := NewPandocConverter(&fakeRuntime{imageErr: errors.New("missing")})
	assert.Error(t, err)

	c, err := NewPandocConverter(&fakeRuntime{runErr: errors.New("exit 1")})
	require.NoError(t, err)
	_, err = c.Convert(strings.NewReader(substackPage))
	assert.ErrorContains(t, err, "pandoc")

	c, err = NewPandocConverter(&fakeRuntime{output: "  \n"})
	require.NoError(t, err)
	_, err = c.Convert(strings.NewReader(substackPage))
	var pe *types.ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestNew(t *testing.T) {
	c, err := New(types.ConvertConfig{}, nil)
	require.NoError(t, err)
	assert.IsType(t, Native{}, c)

	_, err = New(types.ConvertConfig{Backend: types.BackendPandoc}, nil)
	assert.Error(t, err)

	c, err = New(types.ConvertConfig{Backend: types.BackendPandoc}, &fakeRuntime{})
	require.NoError(t, err)
	assert.IsType(t, &PandocConverter{}, c)

	_, err = New(types.ConvertConfig{Backend: "lynx"}, nil)
	assert.Error(t, err)
}
