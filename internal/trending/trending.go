// Package trending derives recurring topics from an article batch by
// stop-worded frequency counting. Same batch in, same ranking out; ties
// break by first-seen order.
package trending

import (
	"sort"
	"strings"
	"unicode"

	"github.com/prismfeed/prism/internal/model"
)

const maxTopics = 12

var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "again": true, "against": true,
	"all": true, "also": true, "amid": true, "an": true, "and": true,
	"announces": true, "are": true, "as": true, "at": true, "back": true,
	"be": true, "been": true, "before": true, "being": true, "between": true,
	"but": true, "by": true, "calls": true, "can": true, "could": true,
	"day": true, "did": true, "do": true, "does": true, "down": true,
	"during": true, "first": true, "for": true, "from": true, "get": true,
	"gets": true, "has": true, "have": true, "he": true, "her": true,
	"here": true, "his": true, "how": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "just": true, "latest": true,
	"like": true, "live": true, "make": true, "makes": true, "man": true,
	"may": true, "more": true, "most": true, "new": true, "news": true,
	"no": true, "not": true, "now": true, "of": true, "off": true,
	"on": true, "one": true, "or": true, "out": true, "over": true,
	"report": true, "reports": true, "said": true, "say": true, "says": true,
	"she": true, "should": true, "since": true, "so": true, "some": true,
	"still": true, "than": true, "that": true, "the": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "time": true, "to": true,
	"today": true, "top": true, "two": true, "under": true, "up": true,
	"update": true, "us": true, "was": true, "watch": true, "we": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "who": true, "why": true, "will": true, "with": true,
	"world": true, "would": true, "year": true, "years": true, "you": true,
}

// Detect counts title and description tokens across the batch and
// returns the top recurring terms.
func Detect(articles []model.Article) []model.Topic {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, a := range articles {
		for _, token := range tokenize(a.Title + " " + a.Description) {
			if _, seen := counts[token]; !seen {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	topics := make([]model.Topic, 0, len(counts))
	for name, count := range counts {
		if count < 2 {
			continue // a term seen once is not trending
		}
		topics = append(topics, model.Topic{Name: name, Count: count})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return firstSeen[topics[i].Name] < firstSeen[topics[j].Name]
	})

	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, w := range strings.Fields(b.String()) {
		if len(w) <= 3 || stopWords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}
