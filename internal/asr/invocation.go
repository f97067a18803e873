package asr

import (
	"strings"
	"unicode"
)

// invocationPrefixes are attempted longest-first so "hey edna" is preferred
// over "edna" when both would match. Includes common recognizer mishears
// for the wake name.
var invocationPrefixes = []string{
	"hey edna",
	"okay edna",
	"ok edna",
	"edna",
	"etna",
	"ewa",
	"ed nah",
	"ed na",
	"ed",
}

func init() {
	// Guarantee longest-match-first regardless of edits to the list above.
	sortByLengthDesc(invocationPrefixes)
}

func sortByLengthDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && len(s[j-1]) < len(s[j]); j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Normalize lowercases text, replaces non-alphanumeric/non-whitespace
// characters with a space, collapses whitespace runs, and trims. It is
// idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripInvocation attempts to strip the longest matching invocation prefix
// from the normalized form of text. It returns the remainder (possibly
// empty) and true on a match, or ("", false) if no prefix matched.
func StripInvocation(text string) (string, bool) {
	normalized := Normalize(text)
	for _, prefix := range invocationPrefixes {
		if normalized == prefix {
			return "", true
		}
		if strings.HasPrefix(normalized, prefix+" ") {
			remainder := strings.TrimSpace(normalized[len(prefix):])
			return remainder, true
		}
	}
	return "", false
}
