// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// bodySelectors locate the article body on Substack post pages, most
// specific first.
var bodySelectors = []cascadia.Selector{
	cascadia.MustCompile("div.available-content div.body"),
	cascadia.MustCompile("div.body.markup"),
	cascadia.MustCompile("div.body"),
	cascadia.MustCompile("div.post-content"),
	cascadia.MustCompile("article"),
}

var (
	selBody    = cascadia.MustCompile("body")
	selContent = cascadia.MustCompile("h1, h2, h3, h4, h5, h6, p, ul, ol, pre, blockquote, img, figure, table")
	selChrome  = cascadia.MustCompile(".subscription-widget-wrap, .button-wrapper, .share-dialog, .image-link-expand")

	selPostTitle   = cascadia.MustCompile("h1.post-title")
	selOGTitle     = cascadia.MustCompile(`meta[property="og:title"]`)
	selTitle       = cascadia.MustCompile("head title")
	selH1          = cascadia.MustCompile("h1")
	selSubtitle    = cascadia.MustCompile("h3.subtitle")
	selOGDesc      = cascadia.MustCompile(`meta[property="og:description"]`)
	selAuthor      = cascadia.MustCompile(`meta[name="author"]`)
	selTime        = cascadia.MustCompile("time[datetime]")
	selPublished   = cascadia.MustCompile(`meta[property="article:published_time"]`)
	selJSONLD      = cascadia.MustCompile(`script[type="application/ld+json"]`)
	selLikeCount   = cascadia.MustCompile(".like-count, .post-ufi-button .label")
	selPaidContent = cascadia.MustCompile(".paywall, .paid-content")
)

// findBody returns the article body element, or nil when the document has
// no recognizable content.
func findBody(doc *html.Node) *html.Node {
	for _, sel := range bodySelectors {
		if n := cascadia.Query(doc, sel); n != nil {
			return n
		}
	}
	body := cascadia.Query(doc, selBody)
	if body != nil && cascadia.Query(body, selContent) != nil {
		return body
	}
	return nil
}

// cleanBody removes scripts, interactive widgets, Substack chrome and empty
// paragraphs from body in place.
func cleanBody(body *html.Node) {
	for _, n := range cascadia.QueryAll(body, selChrome) {
		detach(n)
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			switch {
			case c.Type == html.CommentNode:
				n.RemoveChild(c)
			case c.Type == html.ElementNode && droppedTags[c.Data]:
				n.RemoveChild(c)
			case c.Type == html.ElementNode:
				walk(c)
				if c.Data == "p" && emptyParagraph(c) {
					n.RemoveChild(c)
				}
			}
			c = next
		}
	}
	walk(body)
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// emptyParagraph reports whether p holds neither text nor media.
func emptyParagraph(p *html.Node) bool {
	if strings.TrimSpace(strings.ReplaceAll(textContent(p), "\u00a0", " ")) != "" {
		return false
	}
	var media bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil && !media; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "img" || embedTags[c.Data]) {
				media = true
				return
			}
			walk(c)
		}
	}
	walk(p)
	return !media
}

// renderInnerHTML serializes the children of n.
func renderInnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

// metadata is what the page says about the post, independent of its body.
type metadata struct {
	Title       string
	Subtitle    string
	Author      string
	PublishedAt *time.Time
	LikeCount   int
	Paid        bool
}

// extractMetadata reads post metadata from the full document. raw is the
// original page, used for the reader-mode fallback.
func extractMetadata(doc *html.Node, raw []byte) metadata {
	m := metadata{
		Title:    firstNonEmpty(nodeText(doc, selPostTitle), metaContent(doc, selOGTitle), nodeText(doc, selTitle), nodeText(doc, selH1)),
		Subtitle: firstNonEmpty(nodeText(doc, selSubtitle), metaContent(doc, selOGDesc)),
		Author:   metaContent(doc, selAuthor),
		Paid:     cascadia.Query(doc, selPaidContent) != nil,
	}
	m.PublishedAt = extractDate(doc)
	m.LikeCount = extractLikeCount(doc)

	if m.Title == "" || m.Author == "" {
		title, byline := readerMode(raw)
		if m.Title == "" {
			m.Title = title
		}
		if m.Author == "" {
			m.Author = byline
		}
	}
	return m
}

// readerModeURL is the placeholder page URL handed to the readability
// parser, which resolves relative links against it.
var readerModeURL = &url.URL{Scheme: "https", Host: "substack.com", Path: "/"}

func readerMode(raw []byte) (title, byline string) {
	article, err := readability.FromReader(bytes.NewReader(raw), readerModeURL)
	if err != nil {
		return "", ""
	}
	return collapseSpace(strings.TrimSpace(article.Title)), collapseSpace(strings.TrimSpace(article.Byline))
}

func extractDate(doc *html.Node) *time.Time {
	if n := cascadia.Query(doc, selTime); n != nil {
		if t := parseDate(attr(n, "datetime")); t != nil {
			return t
		}
	}
	if t := parseDate(metaContent(doc, selPublished)); t != nil {
		return t
	}
	for _, n := range cascadia.QueryAll(doc, selJSONLD) {
		if t := parseDate(jsonLDDate([]byte(textContent(n)))); t != nil {
			return t
		}
	}
	return nil
}

// jsonLDDate returns the first datePublished found in a JSON-LD block,
// which may hold one object or a list of them.
func jsonLDDate(data []byte) string {
	var single struct {
		DatePublished string `json:"datePublished"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.DatePublished != "" {
		return single.DatePublished
	}
	var many []struct {
		DatePublished string `json:"datePublished"`
	}
	if err := json.Unmarshal(data, &many); err == nil {
		for _, obj := range many {
			if obj.DatePublished != "" {
				return obj.DatePublished
			}
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"Jan 2, 2006",
	"January 2, 2006",
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

var likeCountPattern = regexp.MustCompile(`(\d[\d,.]*)\s*([kKmM]?)`)

func extractLikeCount(doc *html.Node) int {
	for _, n := range cascadia.QueryAll(doc, selLikeCount) {
		if count, ok := parseCount(textContent(n)); ok {
			return count
		}
	}
	return 0
}

// parseCount reads counts such as "42", "1,024" and "1.2K".
func parseCount(s string) (int, bool) {
	m := likeCountPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	num := m[1]
	mult := 1.0
	switch strings.ToLower(m[2]) {
	case "k":
		mult = 1_000
	case "m":
		mult = 1_000_000
	}
	if mult == 1 {
		v, err := strconv.Atoi(strings.NewReplacer(",", "", ".", "").Replace(num))
		return v, err == nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return int(v*mult + 0.5), true
}

func nodeText(doc *html.Node, sel cascadia.Selector) string {
	n := cascadia.Query(doc, sel)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(collapseSpace(textContent(n)))
}

func metaContent(doc *html.Node, sel cascadia.Selector) string {
	n := cascadia.Query(doc, sel)
	if n == nil {
		return ""
	}
	return strings.TrimSpace(collapseSpace(attr(n, "content")))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
