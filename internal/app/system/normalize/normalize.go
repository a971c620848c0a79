// Package normalize canonicalizes user-supplied identifiers and filter
// values before they are stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username trims a username, keeping its case for display.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// UsernameCI folds a username for case-insensitive uniqueness.
func UsernameCI(s string) string {
	return text.Fold(strings.TrimSpace(s))
}

// City trims a city name and collapses inner runs of whitespace.
func City(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CityCI folds a city name for case-insensitive matching.
func CityCI(s string) string {
	return text.Fold(City(s))
}

// Slug trims and lower-cases a category or subcategory slug.
func Slug(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query parameter value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Tags lower-cases, trims and de-duplicates tags, dropping empties.
// Each input may itself be a comma-separated list. Order of first
// appearance is preserved.
func Tags(in []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(in))
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			t := strings.ToLower(strings.TrimSpace(part))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
