// Package slug turns arbitrary display names into URL/identifier-safe
// usernames. "Máté König" becomes "mate-konig".
//
// The slug — not the raw name — is what gets stored and indexed as the
// unique username key, so slugging must happen before any lookup.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks (the accents), and
// recomposes. This is the standard x/text transliteration chain: "é" → "e".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make slugifies s: transliterate to ASCII, lowercase, replace whitespace
// runs with a single hyphen, drop anything that isn't [a-z0-9._-], and trim
// leading/trailing separators. Returns "" when nothing usable remains —
// callers decide the fallback.
func Make(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the raw
		// input and let the rune filter below drop the garbage.
		folded = s
	}

	folded = strings.ToLower(strings.TrimSpace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
		// anything else (emoji, punctuation, symbols) is dropped
	}

	return strings.Trim(b.String(), "-._")
}
