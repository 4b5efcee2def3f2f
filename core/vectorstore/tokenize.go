package vectorstore

import (
	"strings"
	"unicode"
)

// minTokenLen is exclusive: tokens must be longer than this.
const minTokenLen = 2

// Tokenize lowercases text, replaces everything outside [a-z0-9] and
// whitespace with spaces, and returns the words longer than two bytes.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return ' '
		}
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
