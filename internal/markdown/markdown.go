// Package markdown converts page markdown to HTML with goldmark.
//
// Raw HTML is passed through unchanged so layout wrapper tags, slot markers
// and snippet tags written in a markdown page survive conversion and can be
// matched afterwards.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter renders markdown text to HTML. It holds no per-call state and is
// safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

// New returns a converter with GitHub flavoured markdown enabled.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// ToHTML converts src to HTML.
func (c *Converter) ToHTML(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}
