package utils

import (
	"unicode"
	"unicode/utf8"
)

// ContainsSpace checks if a string contains any whitespace
func ContainsSpace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}

// ContainsControl checks if a string contains control characters
func ContainsControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// IsValidToken checks if a token can be indexed or queried.
// Tokens are whitespace-delimited units, so they must be non-empty, free of
// whitespace and control characters, and at most maxLen runes (0 = no limit).
func IsValidToken(s string, maxLen int) bool {
	if len(s) == 0 {
		return false
	}
	if !utf8.ValidString(s) {
		return false
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return false
	}
	if ContainsSpace(s) || ContainsControl(s) {
		return false
	}
	return true
}
