// Package scrape fetches article pages and enriches articles with full
// text and page-level media. Every fetch is best-effort: a timeout or
// error leaves the article with whatever data it already had.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/prismfeed/prism/internal/logger"
	"github.com/prismfeed/prism/internal/media"
	"github.com/prismfeed/prism/internal/model"
	"github.com/prismfeed/prism/internal/retry"
)

const maxBodyBytes = 2 << 20 // 2 MiB page cap

type Enricher struct {
	workers  int
	timeout  time.Duration
	client   *http.Client
	retryCfg retry.Config
}

func NewEnricher(workers int, timeout time.Duration, attempts int, delay time.Duration) *Enricher {
	if workers < 1 {
		workers = 1
	}
	return &Enricher{
		workers: workers,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		retryCfg: retry.Config{MaxAttempts: attempts, Delay: delay},
	}
}

// EnrichAll runs the worker pool over the pending articles. Workers pull
// from a shared queue so output request volume stays bounded.
func (e *Enricher) EnrichAll(ctx context.Context, articles []*model.Article) {
	queue := make(chan *model.Article, len(articles))
	var wg sync.WaitGroup

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for a := range queue {
				if ctx.Err() != nil {
					continue // drain without fetching once the request deadline passed
				}
				if err := e.enrich(ctx, a); err != nil {
					logger.Debug("enrichment skipped", "url", a.URL, "err", err)
				}
			}
		}()
	}

	for _, a := range articles {
		queue <- a
	}
	close(queue)
	wg.Wait()
}

func (e *Enricher) enrich(ctx context.Context, a *model.Article) error {
	if a.URL == "" {
		return fmt.Errorf("article has no URL")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var body []byte
	err := retry.Do(fetchCtx, e.retryCfg, func() error {
		var ferr error
		body, ferr = e.fetch(fetchCtx, a.URL)
		return ferr
	})
	if err != nil {
		return err
	}

	pageHTML := string(body)

	// Page media supplements whatever the feed markup already carried.
	a.Media = media.Merge(a.Media, media.Extract(pageHTML))
	if a.ImageURL == "" && len(a.Media.Images) > 0 {
		a.ImageURL = a.Media.Images[0].Src
	}

	pageURL, perr := url.Parse(a.URL)
	if perr != nil {
		return nil
	}
	article, rerr := readability.FromReader(strings.NewReader(pageHTML), pageURL)
	if rerr != nil {
		return nil
	}

	if len(article.TextContent) > len(a.Content) {
		a.Content = article.TextContent
		a.ContentHTML = article.Content
	}
	if a.Description == "" {
		a.Description = article.Excerpt
	}
	if a.ImageURL == "" {
		a.ImageURL = article.Image
	}
	return nil
}

func (e *Enricher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "prismfeed/1.0 (+https://github.com/prismfeed/prism)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
