// Package htmlsanitize removes markup from user-supplied text such as
// listing titles, descriptions and message bodies.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element and attribute. Content of script and style
// elements is dropped entirely.
var strict = bluemonday.StrictPolicy()

// StripTags returns s as plain text: tags removed, entities decoded and
// surrounding whitespace trimmed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
