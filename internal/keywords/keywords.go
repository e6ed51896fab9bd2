// Package keywords turns the user's recently liked paper titles into a small
// set of search keywords for the relevance strategy.
//
// Extraction is a heuristic, not a model: the most recent liked titles are
// tokenized, stop words and short tokens are dropped, and the first few
// distinct survivors are kept.
package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// RecentTitles is how many of the most recent liked titles are considered.
	RecentTitles = 3

	// MaxKeywords is the maximum number of keywords returned.
	MaxKeywords = 3

	// minTokenLength is the shortest token kept; anything up to 4 runes is dropped.
	minTokenLength = 5
)

// stopWords are generic words that say nothing about a paper's topic. The agent
// and language-model terms are already part of the relevance base query.
var stopWords = map[string]struct{}{
	"about": {}, "across": {}, "after": {}, "agent": {}, "agents": {}, "among": {},
	"analysis": {}, "approach": {}, "based": {}, "being": {}, "between": {},
	"framework": {}, "large": {}, "language": {}, "method": {}, "methods": {},
	"model": {}, "models": {}, "paper": {}, "study": {}, "system": {}, "systems": {},
	"their": {}, "these": {}, "those": {}, "through": {}, "toward": {}, "towards": {},
	"under": {}, "using": {}, "where": {}, "which": {}, "while": {}, "within": {},
	"without": {},
}

// Tokens returns up to MaxKeywords distinct keywords drawn from the most recent
// liked titles. Titles are ordered oldest first; the most recent title is read
// first so its words win ties for the limited slots.
func Tokens(likedTitles []string) []string {
	if len(likedTitles) == 0 {
		return nil
	}

	start := len(likedTitles) - RecentTitles
	if start < 0 {
		start = 0
	}
	recent := likedTitles[start:]

	var sb strings.Builder
	for i := len(recent) - 1; i >= 0; i-- {
		sb.WriteString(recent[i])
		sb.WriteByte(' ')
	}

	words := strings.FieldsFunc(strings.ToLower(sb.String()), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, MaxKeywords)
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTokenLength {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == MaxKeywords {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Extract returns the keywords joined with OR, or "" when nothing qualifies.
func Extract(likedTitles []string) string {
	return strings.Join(Tokens(likedTitles), " OR ")
}
