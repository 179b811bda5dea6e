// Package slug turns display names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Generate lowercases name, folds accented letters to ASCII, and joins the
// remaining alphanumeric runs with single hyphens.
// "Lunar Arc Floor Lamp" -> "lunar-arc-floor-lamp", "Café Décor" -> "cafe-decor".
func Generate(name string) string {
	s := norm.NFKD.String(name)

	// drop combining marks and anything else outside ASCII
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
