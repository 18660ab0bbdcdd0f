// Package pipeline holds the order-preserving batch transforms applied
// between fetching and caching: deduplication, per-source diversification
// and the completeness filter.
package pipeline

import (
	"strings"
	"unicode"

	"github.com/prismfeed/prism/internal/model"
)

// SimilarityThreshold is the token-overlap ratio above which two titles
// from different sources are treated as the same wire story. Tunable, not
// a load-bearing contract.
const SimilarityThreshold = 0.85

var titleStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "as": true, "by": true, "is": true, "are": true, "was": true,
	"after": true, "over": true, "from": true, "into": true, "amid": true,
}

// Dedupe collapses duplicates, first occurrence wins. Two articles are
// duplicates when their identity key (URL, or title when URL is absent,
// case-insensitive) matches, or when their titles overlap above
// SimilarityThreshold across sources.
func Dedupe(articles []model.Article) []model.Article {
	return DedupeThreshold(articles, SimilarityThreshold)
}

// DedupeThreshold is Dedupe with an explicit similarity threshold.
func DedupeThreshold(articles []model.Article, threshold float64) []model.Article {
	seen := make(map[string]bool, len(articles))
	var keptTokens []map[string]bool
	out := make([]model.Article, 0, len(articles))

	for _, a := range articles {
		key := identityKey(a)
		if seen[key] {
			continue
		}

		tokens := titleTokens(a.Title)
		if similarToAny(tokens, keptTokens, threshold) {
			continue
		}

		seen[key] = true
		keptTokens = append(keptTokens, tokens)
		out = append(out, a)
	}
	return out
}

func identityKey(a model.Article) string {
	if a.URL != "" {
		return strings.ToLower(a.URL)
	}
	return strings.ToLower(strings.TrimSpace(a.Title))
}

func similarToAny(tokens map[string]bool, kept []map[string]bool, threshold float64) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, other := range kept {
		if jaccard(tokens, other) >= threshold {
			return true
		}
	}
	return false
}

// titleTokens lowercases, strips punctuation and drops stop-words and
// short tokens.
func titleTokens(title string) map[string]bool {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := make(map[string]bool)
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 2 || titleStopWords[w] {
			continue
		}
		tokens[w] = true
	}
	return tokens
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
