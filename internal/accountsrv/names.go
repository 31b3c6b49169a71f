package accountsrv

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	minNameLength = 3
	maxNameLength = 16
)

// NormalizeName puts a user-supplied name into NFC so lookups and
// uniqueness checks compare the same bytes regardless of input method.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}

// ValidName reports whether a normalized account or character name is
// acceptable: bounded length, printable letters/digits with single
// interior spaces, no leading or trailing space.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return false
	}
	prevSpace := true // rejects a leading space
	for _, r := range name {
		switch {
		case r == ' ':
			if prevSpace {
				return false
			}
			prevSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			prevSpace = false
		default:
			return false
		}
	}
	return !prevSpace // rejects a trailing space
}
