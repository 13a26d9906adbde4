// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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

const imagePandoc = "pandoc/core:latest"

// pandocArgs convert an HTML fragment on stdin to GitHub-flavored Markdown
// on stdout without hard wrapping.
var pandocArgs = []string{"-f", "html", "-t", "gfm", "--wrap=none"}

// PandocConverter renders post bodies by piping them through the pandoc
// container image. Body location and metadata are the same as Native.
type PandocConverter struct {
	runtime container.Runtime
}

// NewPandocConverter checks that the pandoc image exists in rt.
func NewPandocConverter(rt container.Runtime) (*PandocConverter, error) {
	if err := rt.ImageExists(imagePandoc); err != nil {
		return nil, fmt.Errorf("pandoc image not available in %s: %w", rt.Name(), err)
	}
	return &PandocConverter{runtime: rt}, nil
}

// Convert reads a full HTML document from r.
func (p *PandocConverter) Convert(r io.Reader) (types.PostContent, error) {
	return convertDocument(r, func(_ *html.Node, bodyHTML string) (string, error) {
		var out bytes.Buffer
		if err := p.runtime.Run(imagePandoc, pandocArgs, strings.NewReader(bodyHTML), &out); err != nil {
			return "", fmt.Errorf("converting with pandoc: %w", err)
		}
		return out.String(), nil
	})
}
