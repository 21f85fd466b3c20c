// Package tokenizer turns raw text into the lower-case alphabetic terms the
// ranking engine compares. Normalize is the query-time contract; Analyzer is
// the ingestion pipeline that additionally removes stop-words and stems.
package tokenizer

import "strings"

// Normalize lower-cases text, splits it on whitespace and keeps only tokens
// made entirely of the letters a-z. Tokens containing digits, punctuation or
// non-ASCII letters are dropped whole rather than cleaned.
func Normalize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if IsTerm(word) {
			terms = append(terms, word)
		}
	}
	return terms
}

// IsTerm reports whether s is a non-empty run of the letters a-z.
func IsTerm(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// Split breaks stored document content into its terms. Content is written
// by Analyzer as terms joined by single spaces; empty fields are skipped.
func Split(content string) []string {
	fields := strings.Split(content, " ")
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

// Join is the inverse of Split.
func Join(terms []string) string {
	return strings.Join(terms, " ")
}
