package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds accents to ASCII, lowercases and collapses every run of
// non-alphanumeric characters into a single space. Alias matching and theme
// inference both run over this form.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			space = false
		} else if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Slugify turns a day title into a filesystem-safe token for map filenames.
func Slugify(s string) string {
	slug := strings.ReplaceAll(Normalize(s), " ", "_")
	if slug == "" {
		return "day"
	}
	return slug
}
