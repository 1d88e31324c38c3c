package markdown

import "regexp"

// The fallback covers the fixed subset the chat actually needs when no full
// markdown engine is wired: bold, italics, inline code. Substitution runs on
// already-escaped text; the order is load-bearing, since escaping afterwards
// would mangle the inserted tags.
var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*([^*]+?)\*`)
	codeRe   = regexp.MustCompile("`([^`]+?)`")
)

// RenderFallback converts a minimal markdown subset to HTML. Escape first,
// then pattern substitution.
func RenderFallback(s string) string {
	out := Escape(s)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	return out
}
