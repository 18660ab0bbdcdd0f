package pipeline

import "github.com/prismfeed/prism/internal/model"

// Completeness thresholds: an article needs a real title and at least one
// body-ish field of substance to be worth caching.
const (
	minTitleLen       = 10
	minContentLen     = 100
	minDescriptionLen = 80
)

// FilterComplete drops incomplete articles before caching. An article is
// kept only if its title exceeds 10 characters and at least one of
// content, contentHtml (>100 chars), description or summary (>80 chars)
// carries substance.
func FilterComplete(articles []model.Article) []model.Article {
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if !isComplete(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func isComplete(a model.Article) bool {
	if len(a.Title) <= minTitleLen {
		return false
	}
	return len(a.Content) > minContentLen ||
		len(a.ContentHTML) > minContentLen ||
		len(a.Description) > minDescriptionLen ||
		len(a.Summary) > minDescriptionLen
}
