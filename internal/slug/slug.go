// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"strings"
	"unicode"
)

// Make converts a title into a slug: lower-cased, anything outside
// [a-z0-9] collapsed into single hyphens, no leading or trailing hyphen.
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		default:
			// punctuation and other symbols are stripped
		}
	}

	return strings.TrimRight(b.String(), "-")
}
