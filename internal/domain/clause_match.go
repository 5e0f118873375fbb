package domain

import (
	"strings"
	"unicode"
)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at",
		"by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that",
		"these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so",
		"such", "into", "about", "between", "through", "during", "before", "after", "above", "below",
		"out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "how", "does", "do", "i", "me", "my", "tell",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// MatchClauseID returns the clause whose identifier occurs in the question.
// When several match, the longest identifier wins ("302.2.4" over "302.2"),
// then the earliest clause.
func MatchClauseID(clauses []Clause, question string) (Clause, bool) {
	q := strings.ToLower(question)

	best := -1
	for i, c := range clauses {
		id := strings.ToLower(strings.TrimSpace(c.ID))
		if id == "" || !strings.Contains(q, id) {
			continue
		}
		if best < 0 || len(id) > len(strings.TrimSpace(clauses[best].ID)) {
			best = i
		}
	}
	if best < 0 {
		return Clause{}, false
	}
	return clauses[best], true
}

// QuestionTokens lowercases and splits the question on whitespace, trims edge
// punctuation and drops stopwords. Repeated tokens are kept.
func QuestionTokens(question string) []string {
	fields := strings.Fields(strings.ToLower(question))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if tok == "" {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// KeywordScore counts tokens that occur as substrings of the clause heading + summary.
func KeywordScore(c Clause, tokens []string) int {
	haystack := strings.ToLower(c.Heading + " " + c.Summary)
	score := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			score++
		}
	}
	return score
}

// BestKeywordMatch returns the clause with the highest non-zero keyword score.
// Ties go to the earliest clause.
func BestKeywordMatch(clauses []Clause, question string) (Clause, int, bool) {
	tokens := QuestionTokens(question)
	if len(tokens) == 0 {
		return Clause{}, 0, false
	}

	best, bestScore := -1, 0
	for i, c := range clauses {
		if s := KeywordScore(c, tokens); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return Clause{}, 0, false
	}
	return clauses[best], bestScore, true
}
