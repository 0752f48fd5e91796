package news

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText turns untrusted input into a single line of plain text:
// markup is stripped, entities are decoded and whitespace is collapsed.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}

// SanitizeKey is SanitizeText lower-cased, for values used as lookup keys.
func SanitizeKey(s string) string {
	return strings.ToLower(SanitizeText(s))
}
