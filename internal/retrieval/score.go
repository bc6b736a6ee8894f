// Package retrieval picks the chapters of a document most relevant to a
// question and assembles them into a bounded context for a model call.
package retrieval

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Tokenize returns the maximal runs of letters and digits in text,
// lowercased. Letters of any script count, so Latin and Cyrillic words are
// both kept whole.
func Tokenize(text string) []string {
	text = norm.NFC.String(text)
	var tokens []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = append(tokens, strings.ToLower(text[start:i]))
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, strings.ToLower(text[start:]))
	}
	return tokens
}

// isWordRune reports whether r belongs inside a token. Marks that NFC
// cannot compose into a letter are separators.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Score counts the distinct question tokens that also occur in text.
// Repeats on either side count once.
func Score(text string, question map[string]struct{}) int {
	if text == "" || len(question) == 0 {
		return 0
	}
	score := 0
	for t := range TokenSet(text) {
		if _, ok := question[t]; ok {
			score++
		}
	}
	return score
}
