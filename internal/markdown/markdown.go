// Package markdown holds the text-to-markup pipeline shared by the web view
// and the terminal client: an HTML escaper for live streamed text, a goldmark
// renderer for completed replies, and a minimal fallback formatter for
// contexts where the full engine is not wired.
package markdown

import (
	"bytes"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts completed assistant text to HTML through goldmark. The
// zero value is not usable; construct with NewRenderer.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds the markdown engine used for final renders: GFM tables
// and strikethrough, fenced code highlighting, and hard wraps so the model's
// single newlines survive as line breaks.
func NewRenderer() Renderer {
	return Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("monokai"),
				),
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
			),
		),
	}
}

// Render converts markdown source to HTML. On conversion failure the escaped
// fallback subset is returned instead, so a completed reply always renders.
func (r Renderer) Render(source string) template.HTML {
	if r.md == nil {
		return template.HTML(RenderFallback(source)) //nolint:gosec // escaped by RenderFallback
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return template.HTML(RenderFallback(source)) //nolint:gosec // escaped by RenderFallback
	}
	return template.HTML(buf.String()) //nolint:gosec // server-formatted text, per contract
}

// RenderString is Render for callers outside html/template contexts.
func (r Renderer) RenderString(source string) string {
	return string(r.Render(source))
}
