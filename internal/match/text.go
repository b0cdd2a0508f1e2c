package match

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// minTokenRunes drops single-character tokens such as "a" or stray digits.
const minTokenRunes = 2

// Tokenize normalises text (NFKC, case folded) and splits it into runs of
// letters and digits. Underscores stay inside tokens.
func Tokenize(text string) []string {
	s := cases.Fold().String(norm.NFKC.String(text))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenRunes {
			continue
		}
		out = append(out, f)
	}
	return out
}
