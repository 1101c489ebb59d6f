package engine

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// foldDiacritics decomposes to NFD, drops combining marks and recomposes,
// so "coração" folds to "coracao". Chained transformers carry internal
// buffers, so a fresh chain is built per call instead of sharing one.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize lowercases, trims and strips diacritics from text. Every match
// path and every learned-store key goes through this, so matching stays
// accent-insensitive end to end.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	folded, _, err := transform.String(foldDiacritics(), text)
	if err != nil {
		// Transform failures leave the lowercased text usable as-is.
		return text
	}
	return folded
}

// Tokenize splits normalized text into its set of word tokens.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.FindAllString(text, -1) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// overlap counts the tokens present in both sets.
func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
