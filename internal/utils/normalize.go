package utils

import "strings"

// LowerTokens returns a lower-cased copy of tokens.
// The index assumes tokens arrive normalized, so every front-end calls this.
func LowerTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}
