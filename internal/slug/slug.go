package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Flabébé" becomes "Flabebe".
// The chain is built per call: transform.Chain carries internal buffers and
// is not safe to share across goroutines.
func StripDiacritics(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	return out
}

// Make turns a display name into a stable lowercase hyphenated key.
func Make(name string) string {
	name = StripDiacritics(strings.TrimSpace(name))
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NormalizeName is the single opponent-name normalization used everywhere:
// trim, case-fold, strip diacritics. Aggregation keys and lookups must all
// go through this so the same person never lands in two buckets.
func NormalizeName(name string) string {
	return strings.ToLower(StripDiacritics(strings.TrimSpace(name)))
}
