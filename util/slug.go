package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify returns a lower-case string which consists of a-z, 0-9 and single hyphens.
// Accents are removed, so "Résumé 2024" becomes "resume-2024".
func Slugify(s string) string {

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	var hyphen = false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteRune('-')
			hyphen = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
