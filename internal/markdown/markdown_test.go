package markdown_test

import (
	"testing"

	"github.com/medgrove/med-web-ui/internal/markdown"
	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "angle brackets and ampersand",
			in:   "a < b && c > d",
			want: "a &lt; b &amp;&amp; c &gt; d",
		},
		{
			name: "newline becomes break",
			in:   "line one\nline two",
			want: "line one<br>line two",
		},
		{
			name: "script tag stays literal",
			in:   "<script>alert(1)</script>",
			want: "&lt;script&gt;alert(1)&lt;/script&gt;",
		},
		{
			name: "quotes",
			in:   `say "hi" and 'bye'`,
			want: "say &quot;hi&quot; and &#39;bye&#39;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markdown.Escape(tt.in))
		})
	}
}

func TestRenderFallback(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bold",
			in:   "take **two** tablets",
			want: "take <strong>two</strong> tablets",
		},
		{
			name: "italic",
			in:   "take *with food*",
			want: "take <em>with food</em>",
		},
		{
			name: "inline code",
			in:   "dose is `500mg`",
			want: "dose is <code>500mg</code>",
		},
		{
			name: "escaping runs before substitution",
			in:   "**<b>**",
			want: "<strong>&lt;b&gt;</strong>",
		},
		{
			name: "newline",
			in:   "a\nb",
			want: "a<br>b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, markdown.RenderFallback(tt.in))
		})
	}
}

func TestRendererRender(t *testing.T) {
	r := markdown.NewRenderer()

	out := string(r.Render("## Symptoms\n\n- fever\n- **chills**"))
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "<li>fever</li>")
	assert.Contains(t, out, "<strong>chills</strong>")
}

func TestRendererZeroValueFallsBack(t *testing.T) {
	var r markdown.Renderer

	out := string(r.Render("**bold** and <tag>"))
	assert.Equal(t, "<strong>bold</strong> and &lt;tag&gt;", out)
}
