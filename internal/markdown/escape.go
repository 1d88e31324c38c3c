package markdown

import "strings"

var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape converts raw text to HTML-safe interim markup: entities are escaped
// and newlines become line breaks. This is the live-streaming representation
// of assistant text before the final markdown pass, and the only
// representation user-authored text ever gets.
func Escape(s string) string {
	return strings.ReplaceAll(entityReplacer.Replace(s), "\n", "<br>")
}
