// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns a Substack post page into Markdown plus the post's
// metadata. The native backend renders the extracted body with
// html-to-markdown; the pandoc backend hands it to a pandoc container.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/sub2md/internal/container"
	"github.com/pdiddy/sub2md/pkg/types"
)

// Converter transforms one post page into a PostContent. Failures caused
// by the document itself are *types.ParseError.
type Converter interface {
	Convert(r io.Reader) (types.PostContent, error)
}

// bodyRenderer produces Markdown from a cleaned body that has gone through
// prepareBody. bodyHTML is the serialized form of body.
type bodyRenderer func(body *html.Node, bodyHTML string) (string, error)

// Native converts pages with html-to-markdown.
type Native struct{}

// Convert reads a full HTML document from r.
func (Native) Convert(r io.Reader) (types.PostContent, error) {
	return convertDocument(r, func(body *html.Node, _ string) (string, error) {
		return renderMarkdown(body)
	})
}

// Convert converts an HTML document with the native backend.
func Convert(doc string) (types.PostContent, error) {
	return Native{}.Convert(strings.NewReader(doc))
}

// New returns the converter for the configured backend. The pandoc backend
// needs a container runtime with the pandoc image available.
func New(cfg types.ConvertConfig, rt container.Runtime) (Converter, error) {
	switch cfg.Backend {
	case "", types.BackendNative:
		return Native{}, nil
	case types.BackendPandoc:
		if rt == nil {
			return nil, fmt.Errorf("pandoc backend requires a container runtime")
		}
		return NewPandocConverter(rt)
	}
	return nil, fmt.Errorf("unknown conversion backend %q", cfg.Backend)
}

func convertDocument(r io.Reader, render bodyRenderer) (types.PostContent, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return types.PostContent{}, fmt.Errorf("reading document: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return types.PostContent{}, &types.ParseError{Reason: "document is not HTML", Err: err}
	}

	meta := extractMetadata(doc, raw)

	body := findBody(doc)
	if body == nil {
		return types.PostContent{}, &types.ParseError{Reason: "no article body found"}
	}
	cleanBody(body)

	bodyHTML, err := renderInnerHTML(body)
	if err != nil {
		return types.PostContent{}, fmt.Errorf("serializing article body: %w", err)
	}
	prepareBody(body)
	prepared, err := renderInnerHTML(body)
	if err != nil {
		return types.PostContent{}, fmt.Errorf("serializing article body: %w", err)
	}
	md, err := render(body, prepared)
	if err != nil {
		return types.PostContent{}, err
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return types.PostContent{}, &types.ParseError{Reason: "article body is empty"}
	}

	return types.PostContent{
		Title:        meta.Title,
		Subtitle:     meta.Subtitle,
		Author:       meta.Author,
		PublishedAt:  meta.PublishedAt,
		LikeCount:    meta.LikeCount,
		Paid:         meta.Paid,
		HTMLBody:     bodyHTML,
		MarkdownBody: md,
	}, nil
}
