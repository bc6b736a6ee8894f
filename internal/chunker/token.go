package chunker

import "strings"

// EstimateTokens gives a rough token count. English runs about 1.33 tokens
// per word; Cyrillic splits into more pieces, so the ~4 chars/token
// estimate wins there.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if byChars := Len(text) / 4; byChars > tokens {
		tokens = byChars
	}
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
