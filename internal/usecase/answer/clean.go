package answer

import (
	"strings"
	"unicode"
)

// allowedPunct is the punctuation kept by CleanText.
const allowedPunct = `.,;:!?'"()[]%/-+=<>°±×*&#@_`

// CleanText drops characters other than letters, digits, common punctuation
// and whitespace, then collapses whitespace runs to single spaces.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(allowedPunct, r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
