package chunkers

import "strings"

// wordsToTokensRatio approximates tokens per whitespace-delimited word.
const wordsToTokensRatio = 1.3

// EstimateTokens estimates the token count of text from its word count.
// An approximation, not an exact count.
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * wordsToTokensRatio
}
