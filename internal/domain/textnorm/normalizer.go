// Package textnorm lowercases, cleans and tokenizes resume and job text.
//
// Every function here is pure: the same input always yields the same output
// and empty or whitespace-only input yields an empty result, never an error.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen drops single-character tokens.
const minTokenLen = 2

// Normalize lowercases text, replaces every character that is not a word
// character, whitespace or one of "+#./" with a space and collapses runs of
// whitespace. Tokens such as "c++", "c#" and "node.js" survive intact.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if keepRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize normalizes text and splits it on whitespace, dropping
// single-character tokens and professional stop words.
func Tokenize(text string) []string {
	fields := strings.Fields(Normalize(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLen || IsStopWord(f) {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// keepRune reports whether r belongs to the [\w\s+#./] class.
func keepRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
		return true
	case r == '_', r == '+', r == '#', r == '.', r == '/':
		return true
	}
	return unicode.Is(unicode.Mn, r)
}
