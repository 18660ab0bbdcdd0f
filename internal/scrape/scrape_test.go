package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prismfeed/prism/internal/model"
)

const articlePage = `<!DOCTYPE html>
<html><head>
<title>Deep dive</title>
<meta property="og:image" content="https://cdn.example.com/hero.jpg">
</head><body>
<article>
<h1>Deep dive</h1>
<p>%s</p>
<p>%s</p>
</article>
</body></html>`

func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	long := strings.Repeat("The committee reviewed the findings in detail. ", 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, articlePage, long, long)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEnrichFillsContentAndMedia(t *testing.T) {
	srv := pageServer(t)
	e := NewEnricher(2, 5*time.Second, 1, 0)

	a := &model.Article{URL: srv.URL, Title: "Deep dive", Content: "stub"}
	e.EnrichAll(context.Background(), []*model.Article{a})

	if len(a.Content) <= len("stub") {
		t.Errorf("content not enriched, still %d chars", len(a.Content))
	}
	if a.ContentHTML == "" {
		t.Error("contentHtml not set")
	}
	if a.ImageURL != "https://cdn.example.com/hero.jpg" {
		t.Errorf("imageUrl = %q, want og:image", a.ImageURL)
	}
}

func TestEnrichKeepsLongerExistingContent(t *testing.T) {
	srv := pageServer(t)
	e := NewEnricher(1, 5*time.Second, 1, 0)

	existing := strings.Repeat("already complete text ", 500)
	a := &model.Article{URL: srv.URL, Content: existing}
	e.EnrichAll(context.Background(), []*model.Article{a})

	if a.Content != existing {
		t.Error("longer existing content was replaced by a shorter extraction")
	}
}

func TestEnrichSurvivesFailures(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(broken.Close)

	e := NewEnricher(2, time.Second, 1, 0)
	articles := []*model.Article{
		{URL: broken.URL, Title: "broken", Content: "original"},
		{Title: "no url", Content: "original"},
	}

	e.EnrichAll(context.Background(), articles)
	for _, a := range articles {
		if a.Content != "original" {
			t.Errorf("failed enrichment mutated %q", a.Title)
		}
	}
}

func TestEnrichAllBoundsConcurrency(t *testing.T) {
	const workers = 3

	var inFlight, peak int64
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		fmt.Fprint(w, "<html><body><p>short</p></body></html>")
	}))
	t.Cleanup(srv.Close)

	e := NewEnricher(workers, 5*time.Second, 1, 0)
	articles := make([]*model.Article, 12)
	for i := range articles {
		articles[i] = &model.Article{URL: fmt.Sprintf("%s/%d", srv.URL, i)}
	}

	e.EnrichAll(context.Background(), articles)

	mu.Lock()
	defer mu.Unlock()
	if peak > workers {
		t.Errorf("observed %d concurrent fetches, want at most %d", peak, workers)
	}
	if peak == 0 {
		t.Error("no fetches observed")
	}
}

func TestEnrichAllDrainsOnCancelledContext(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewEnricher(2, time.Second, 1, 0)
	articles := []*model.Article{{URL: srv.URL}, {URL: srv.URL}}

	done := make(chan struct{})
	go func() {
		e.EnrichAll(ctx, articles)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("EnrichAll did not return promptly under a cancelled context")
	}
	if n := atomic.LoadInt64(&hits); n != 0 {
		t.Errorf("expected no fetches under a cancelled context, got %d", n)
	}
}
