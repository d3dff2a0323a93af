package score

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalises a token for comparison: Unicode NFD decomposition,
// removal of combining marks and any remaining non-ASCII runes (so "coração"
// becomes "coracao"), removal of sentence punctuation, lowercasing, and
// whitespace trimming.
func Normalize(s string) string {
	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		switch r {
		case '.', ',', '!', '?':
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits a phrase into the expected-word list used for scoring:
// punctuation stripped, lowercased, split on whitespace. Accents are kept —
// the expected words are shown to the speaker and normalised again only at
// comparison time.
func Tokenize(phrase string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, phrase)
	return strings.Fields(cleaned)
}
