package app

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeAnswer maps equivalent spellings of an answer to one canonical form:
// compatibility decomposition, combining marks dropped, Unicode case folding,
// and whitespace runs collapsed to single spaces with the ends trimmed.
func NormalizeAnswer(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFKD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(cases.Fold().String(b.String())), " ")
}

// AnswersMatch compares a submitted answer with the stored one. A blank stored answer never matches.
func AnswersMatch(stored, submitted string) bool {
	want := NormalizeAnswer(stored)
	if want == "" {
		return false
	}
	return want == NormalizeAnswer(submitted)
}
