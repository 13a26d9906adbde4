// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/marker"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedTags are removed together with their content.
var droppedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "button": true, "form": true, "input": true,
	"textarea": true, "select": true, "head": true,
}

// embedTags degrade to a link to their source.
var embedTags = map[string]bool{
	"iframe": true, "video": true, "audio": true, "embed": true, "object": true,
}

const embedLinkText = "Embedded content"

// markdownConverter is safe for concurrent use; every call gets its own
// render state.
var markdownConverter = newMarkdownConverter()

func newMarkdownConverter() *converter.Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(
				commonmark.WithHorizontalRule("---"),
				commonmark.WithListEndComment(false),
				commonmark.WithLinkEmptyHrefBehavior(commonmark.LinkBehaviorSkip),
			),
			table.NewTablePlugin(
				table.WithHeaderPromotion(true),
				table.WithSkipEmptyRows(true),
			),
			strikethrough.NewStrikethroughPlugin(),
		),
	)
	for tag := range embedTags {
		conv.Register.RendererFor(tag, converter.TagTypeBlock, renderEmbed, converter.PriorityEarly)
	}
	conv.Register.RendererFor("figcaption", converter.TagTypeBlock, renderFigcaption, converter.PriorityEarly)
	for _, tag := range []string{"strong", "b"} {
		conv.Register.RendererFor(tag, converter.TagTypeInline, renderEmphasis("**"), converter.PriorityEarly)
	}
	for _, tag := range []string{"em", "i", "cite"} {
		conv.Register.RendererFor(tag, converter.TagTypeInline, renderEmphasis("*"), converter.PriorityEarly)
	}
	return conv
}

// renderMarkdown converts the children of body into Markdown. body must
// already have gone through prepareBody.
func renderMarkdown(body *html.Node) (string, error) {
	out, err := markdownConverter.ConvertNode(body)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// prepareBody rewrites the parts of a cleaned body that Markdown cannot
// express as written: lazy images, anchors without a target or without
// text, and links nested in code.
func prepareBody(body *html.Node) {
	for _, img := range dom.FindAllNodes(body, isElement("img")) {
		if strings.TrimSpace(attr(img, "src")) == "" {
			if src := strings.TrimSpace(attr(img, "data-src")); src != "" {
				setAttr(img, "src", src)
			}
		}
	}

	for _, pre := range dom.FindAllNodes(body, isElement("pre")) {
		liftLinks(pre, true)
	}
	for _, code := range dom.FindAllNodes(body, isElement("code")) {
		liftLinks(code, false)
	}

	for _, a := range dom.FindAllNodes(body, isElement("a")) {
		href := strings.TrimSpace(attr(a, "href"))
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			dom.UnwrapNode(a)
			continue
		}
		if strings.TrimSpace(textContent(a)) == "" && !hasMedia(a) {
			a.AppendChild(&html.Node{Type: html.TextNode, Data: href})
		}
	}
}

// liftLinks keeps the targets of anchors nested in a code element. The
// anchors are unwrapped so the code keeps its text. A block keeps the
// targets in a paragraph after it; inline code with a single link is
// wrapped in that link and any further links follow it.
func liftLinks(code *html.Node, block bool) {
	anchors := dom.FindAllNodes(code, isElement("a"))
	var links []*html.Node
	for _, a := range anchors {
		href := strings.TrimSpace(attr(a, "href"))
		text := strings.TrimSpace(collapseSpace(textContent(a)))
		dom.UnwrapNode(a)
		if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			continue
		}
		if text == "" {
			text = href
		}
		links = append(links, newLink(href, text))
	}
	if len(links) == 0 || code.Parent == nil {
		return
	}

	if block {
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		for i, l := range links {
			if i > 0 {
				p.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
			}
			p.AppendChild(l)
		}
		code.Parent.InsertBefore(p, code.NextSibling)
		return
	}

	parent, next := code.Parent, code.NextSibling
	if len(anchors) == 1 {
		first := links[0]
		first.RemoveChild(first.FirstChild)
		parent.InsertBefore(first, code)
		parent.RemoveChild(code)
		first.AppendChild(code)
		return
	}
	for _, l := range links {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: " "}, next)
		parent.InsertBefore(l, next)
	}
}

func newLink(href, text string) *html.Node {
	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
	a.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return a
}

// renderEmbed degrades iframes and media elements to a link to their
// source. Embeds without a source render nothing.
func renderEmbed(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	src := embedSource(n)
	if src == "" {
		return converter.RenderSuccess
	}
	text := strings.TrimSpace(collapseSpace(attr(n, "title")))
	if text == "" {
		text = embedLinkText
	}
	w.WriteString("\n\n[")
	w.Write(ctx.EscapeContent([]byte(text)))
	w.WriteString("](")
	w.WriteString(ctx.AssembleAbsoluteURL(ctx, dom.NodeName(n), src))
	w.WriteString(")\n\n")
	return converter.RenderSuccess
}

func embedSource(n *html.Node) string {
	if src := strings.TrimSpace(attr(n, "src")); src != "" {
		return src
	}
	if n.Data == "object" {
		if src := strings.TrimSpace(attr(n, "data")); src != "" {
			return src
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "source" {
			if src := strings.TrimSpace(attr(c, "src")); src != "" {
				return src
			}
		}
	}
	return ""
}

// renderFigcaption writes a caption as an italic paragraph on one line.
func renderFigcaption(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	var buf bytes.Buffer
	ctx.RenderChildNodes(ctx, &buf, n)
	text := strings.Join(strings.Fields(buf.String()), " ")
	if text == "" {
		return converter.RenderSuccess
	}
	w.WriteString("\n\n")
	w.WriteString(wrapEmphasis(text, "*", ' ', ' '))
	w.WriteString("\n\n")
	return converter.RenderSuccess
}

// renderEmphasis wraps inline content in delim. Delimiters are placed so
// that CommonMark still reads them as emphasis next to the surrounding
// text.
func renderEmphasis(delim string) converter.HandleRenderFunc {
	return func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
		var buf bytes.Buffer
		ctx.RenderChildNodes(ctx, &buf, n)
		lines := strings.Split(buf.String(), "\n")
		for i, line := range lines {
			before, after := ' ', ' '
			if i == 0 {
				before = runeBefore(n)
			}
			if i == len(lines)-1 {
				after = runeAfter(n)
			}
			if i > 0 {
				w.WriteString("\n")
			}
			w.WriteString(wrapEmphasis(line, delim, before, after))
		}
		return converter.RenderSuccess
	}
}

// wrapEmphasis wraps one line of rendered Markdown in delim. before and
// after are the characters around the element in the source text.
//
// Whitespace always moves outside the delimiters. Punctuation at an edge
// that touches a word character moves outside too, since a delimiter run
// between punctuation and a letter does not open or close emphasis. When
// an edge is Markdown syntax that cannot move, the element falls back to
// an inline HTML tag.
func wrapEmphasis(s, delim string, before, after rune) string {
	core := strings.TrimRightFunc(s, unicode.IsSpace)
	trail := s[len(core):]
	trimmed := strings.TrimLeftFunc(core, unicode.IsSpace)
	lead := core[:len(core)-len(trimmed)]
	core = trimmed
	if core == "" {
		return s
	}

	if lead != "" {
		before = ' '
	}
	if trail != "" {
		after = ' '
	}

	var head, tail string
	if isWordRune(after) {
		i := trailingPunct(core)
		core, tail = core[:i], core[i:]
	}
	if isWordRune(before) {
		i := leadingPunct(core)
		head, core = core[:i], core[i:]
	}
	if core == "" {
		return s
	}

	first, _ := utf8.DecodeRuneInString(core)
	last, _ := utf8.DecodeLastRuneInString(core)
	if (isWordRune(before) && head == "" && isPunctRune(first)) ||
		(isWordRune(after) && tail == "" && isPunctRune(last)) {
		tag := "em"
		if delim == "**" {
			tag = "strong"
		}
		return lead + head + "<" + tag + ">" + core + "</" + tag + ">" + tail + trail
	}
	return lead + head + delim + core + delim + tail + trail
}

// plainPunct is text punctuation the converter never escapes.
const plainPunct = ",:?/%@&^{}"

const escapeMarker = marker.MarkerEscaping

// trailingPunct returns the offset of the run of text punctuation that
// ends s. Escaped characters move with their marker; unescaped Markdown
// syntax ends the run.
func trailingPunct(s string) int {
	i := len(s)
	for i > 0 {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		if !isPunctRune(r) {
			break
		}
		j := i - size
		if j > 0 && rune(s[j-1]) == escapeMarker {
			i = j - 1
			continue
		}
		if !strings.ContainsRune(plainPunct, r) && r < utf8.RuneSelf {
			break
		}
		i = j
	}
	return i
}

func leadingPunct(s string) int {
	i := 0
	for i < len(s) {
		if rune(s[i]) == escapeMarker && i+1 < len(s) {
			r, size := utf8.DecodeRuneInString(s[i+1:])
			if !isPunctRune(r) {
				break
			}
			i += 1 + size
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isPunctRune(r) || (!strings.ContainsRune(plainPunct, r) && r < utf8.RuneSelf) {
			break
		}
		i += size
	}
	return i
}

func isPunctRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isWordRune(r rune) bool {
	return r != escapeMarker && !unicode.IsSpace(r) && !isPunctRune(r)
}

// runeBefore returns the last character of the text that precedes n in
// its block, or a space at a block boundary.
func runeBefore(n *html.Node) rune {
	for cur := n; cur != nil; cur = cur.Parent {
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && !dom.NameIsInlineNode(s.Data) {
				return ' '
			}
			if t := textContent(s); t != "" {
				r, _ := utf8.DecodeLastRuneInString(t)
				return r
			}
		}
		if cur.Parent == nil || cur.Parent.Type != html.ElementNode || !dom.NameIsInlineNode(cur.Parent.Data) {
			return ' '
		}
	}
	return ' '
}

// runeAfter returns the first character of the text that follows n in its
// block, or a space at a block boundary.
func runeAfter(n *html.Node) rune {
	for cur := n; cur != nil; cur = cur.Parent {
		for s := cur.NextSibling; s != nil; s = s.NextSibling {
			if s.Type == html.ElementNode && !dom.NameIsInlineNode(s.Data) {
				return ' '
			}
			if t := textContent(s); t != "" {
				r, _ := utf8.DecodeRuneInString(t)
				return r
			}
		}
		if cur.Parent == nil || cur.Parent.Type != html.ElementNode || !dom.NameIsInlineNode(cur.Parent.Data) {
			return ' '
		}
	}
	return ' '
}

func isElement(name string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

func hasMedia(n *html.Node) bool {
	return dom.ContainsNode(n, func(c *html.Node) bool {
		return c.Type == html.ElementNode && (c.Data == "img" || c.Data == "picture" || embedTags[c.Data])
	})
}

// collapseSpace replaces every run of HTML whitespace with one space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(textContent(c))
	}
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
