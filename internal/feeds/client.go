// Package feeds retrieves and parses syndication sources into normalized
// articles. A failing source is logged and skipped; the category fetch as
// a whole never fails.
package feeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/prismfeed/prism/internal/config"
	"github.com/prismfeed/prism/internal/logger"
	"github.com/prismfeed/prism/internal/media"
	"github.com/prismfeed/prism/internal/metrics"
	"github.com/prismfeed/prism/internal/model"
)

type Client struct {
	catalog         *config.Catalog
	defaultCategory string
	maxPerFeed      int
}

func NewClient(catalog *config.Catalog, defaultCategory string, maxPerFeed int) *Client {
	return &Client{
		catalog:         catalog,
		defaultCategory: defaultCategory,
		maxPerFeed:      maxPerFeed,
	}
}

// Normalize maps an unknown category onto the default one.
func (c *Client) Normalize(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if c.catalog.Has(category) {
		return category
	}
	return c.defaultCategory
}

// Categories lists the configured category keys.
func (c *Client) Categories() []string {
	keys := make([]string, 0, len(c.catalog.Categories))
	for k := range c.catalog.Categories {
		keys = append(keys, k)
	}
	return keys
}

// FetchCategory retrieves every source of the category concurrently and
// returns the union of articles in catalog order. An empty result means
// every source failed.
func (c *Client) FetchCategory(ctx context.Context, category string) []model.Article {
	category = c.Normalize(category)
	sources := c.catalog.Sources(category)

	results := make([][]model.Article, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src config.Source) {
			defer wg.Done()
			articles, err := c.fetchSource(ctx, src, category)
			if err != nil {
				logger.Warn("feed source failed", "source", src.Name, "url", src.URL, "err", err)
				metrics.Global.IncrementSourceFailures()
				return
			}
			logger.Debug("feed source ok", "source", src.Name, "items", len(articles))
			results[i] = articles
		}(i, src)
	}
	wg.Wait()

	var all []model.Article
	for _, batch := range results {
		all = append(all, batch...)
	}
	return all
}

func (c *Client) fetchSource(ctx context.Context, src config.Source, category string) ([]model.Article, error) {
	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, err
	}

	sourceName := src.Name
	if sourceName == "" {
		sourceName = feed.Title
	}

	count := len(feed.Items)
	if count > c.maxPerFeed {
		count = c.maxPerFeed
	}

	now := time.Now()
	articles := make([]model.Article, 0, count)
	for _, item := range feed.Items[:count] {
		if item.Link == "" {
			continue
		}

		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		rawContent := item.Content
		if rawContent == "" {
			rawContent = item.Description
		}

		a := model.Article{
			ID:          item.Link,
			URL:         item.Link,
			Title:       strings.TrimSpace(item.Title),
			Description: stripHTML(item.Description),
			Content:     stripHTML(rawContent),
			ContentHTML: rawContent,
			SourceName:  sourceName,
			PublishedAt: published,
			Category:    category,
			Media:       media.Extract(item.Description + item.Content),
		}

		if item.Image != nil && item.Image.URL != "" {
			a.ImageURL = item.Image.URL
		} else if len(a.Media.Images) > 0 {
			a.ImageURL = a.Media.Images[0].Src
		}

		articles = append(articles, a)
	}
	return articles, nil
}

// stripHTML drops tags and collapses whitespace.
func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
