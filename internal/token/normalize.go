package token

import (
	"strings"
	"unicode"
)

// maxKeyLen caps normalized comparison keys.
const maxKeyLen = 300

// Normalize derives the comparison key for a display name: lower-cased, with
// every non-alphanumeric rune (whitespace included) removed, capped at
// maxKeyLen bytes. "Mad Max: 1984", "mad  max 1984" and "Mad-Max 1984" all
// share one key.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	key := b.String()
	if len(key) > maxKeyLen {
		key = key[:maxKeyLen]
	}
	return key
}
