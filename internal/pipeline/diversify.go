package pipeline

import (
	"strings"

	"github.com/prismfeed/prism/internal/model"
)

// Diversify caps how many articles any single source may contribute,
// preserving the relative order of kept items. Source names compare
// case-insensitively.
func Diversify(articles []model.Article, maxPerSource int) []model.Article {
	if maxPerSource <= 0 {
		return articles
	}

	counts := make(map[string]int)
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		source := strings.ToLower(a.SourceName)
		if counts[source] >= maxPerSource {
			continue
		}
		counts[source]++
		out = append(out, a)
	}
	return out
}
