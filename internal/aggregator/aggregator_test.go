package aggregator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prismfeed/prism/internal/cache"
	"github.com/prismfeed/prism/internal/model"
)

type stubFetcher struct {
	mu      sync.Mutex
	batches [][]model.Article
	calls   int
}

func (f *stubFetcher) Normalize(category string) string {
	if category == "" {
		return "top"
	}
	return strings.ToLower(category)
}

func (f *stubFetcher) FetchCategory(ctx context.Context, category string) []model.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.batches) == 0 {
		return nil
	}
	batch := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return append([]model.Article(nil), batch...)
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fullArt(url, title, source string) model.Article {
	return model.Article{
		ID:          url,
		URL:         url,
		Title:       title,
		SourceName:  source,
		Content:     strings.Repeat("Body text for "+title+". ", 10),
		PublishedAt: time.Now(),
	}
}

func newTestService(f *stubFetcher, softTTL, hardTTL time.Duration) *Service {
	store := cache.New(softTTL, hardTTL)
	return New(f, nil, nil, store, Options{
		MaxPerSource:    5,
		FetchTimeout:    time.Second,
		LockTimeout:     time.Second,
		TrendingTTL:     time.Minute,
		TitleSimilarity: 0.85,
	})
}

func TestGetArticlesMissThenHit(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha"),
		fullArt("https://b.com/2", "Storm front approaches the coast", "Beta"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	first := svc.GetArticles(context.Background(), Request{Category: "top"})
	if first.Cached {
		t.Error("first call should be a miss")
	}
	if len(first.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(first.Articles))
	}

	second := svc.GetArticles(context.Background(), Request{Category: "top"})
	if !second.Cached || second.Stale {
		t.Errorf("second call should be a fresh hit, cached=%v stale=%v", second.Cached, second.Stale)
	}
	if f.callCount() != 1 {
		t.Errorf("fetcher called %d times, want 1", f.callCount())
	}
}

func TestGetArticlesDedupesAcrossFeeds(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/story", "Parliament passes overnight budget deal", "Alpha"),
		fullArt("https://a.com/story", "Parliament passes overnight budget deal", "Beta"),
		fullArt("https://b.com/other", "Storm front approaches the coast", "Beta"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	resp := svc.GetArticles(context.Background(), Request{Category: "top"})
	if len(resp.Articles) != 2 {
		t.Fatalf("expected cross-feed duplicate to collapse, got %d articles", len(resp.Articles))
	}
	if resp.Articles[0].SourceName != "Alpha" {
		t.Errorf("first occurrence should win, got source %q", resp.Articles[0].SourceName)
	}
}

func TestGetArticlesAnnotatesLeanAndReadTime(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	resp := svc.GetArticles(context.Background(), Request{Category: "top"})
	a := resp.Articles[0]
	if a.Lean == "" {
		t.Error("lean label not set")
	}
	if a.ReadTime < 1 {
		t.Errorf("readTime = %d, want at least 1", a.ReadTime)
	}
	if a.Category != "top" {
		t.Errorf("category = %q, want top", a.Category)
	}
}

func TestGetArticlesPlaceholderOnTotalFailure(t *testing.T) {
	f := &stubFetcher{}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	resp := svc.GetArticles(context.Background(), Request{Category: "top"})
	if resp.Cached {
		t.Error("placeholder response must not be marked cached")
	}
	if len(resp.Articles) != 1 || resp.Articles[0].ID != "placeholder" {
		t.Fatalf("expected single placeholder article, got %+v", resp.Articles)
	}

	// The placeholder is never cached; the next call fetches again.
	svc.GetArticles(context.Background(), Request{Category: "top"})
	if f.callCount() != 2 {
		t.Errorf("fetcher called %d times, want 2", f.callCount())
	}
}

func TestGetArticlesForceRefreshBypassesCache(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{
		{fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha")},
		{fullArt("https://b.com/2", "Storm front approaches the coast", "Beta")},
	}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	svc.GetArticles(context.Background(), Request{Category: "top"})
	resp := svc.GetArticles(context.Background(), Request{Category: "top", ForceRefresh: true})
	if resp.Cached {
		t.Error("forceRefresh response must not come from cache")
	}
	if resp.Articles[0].SourceName != "Beta" {
		t.Errorf("forceRefresh should serve the new batch, got %q", resp.Articles[0].SourceName)
	}

	// The refreshed batch replaces the cached one.
	after := svc.GetArticles(context.Background(), Request{Category: "top"})
	if !after.Cached || after.Articles[0].SourceName != "Beta" {
		t.Errorf("cache not overwritten: cached=%v source=%q", after.Cached, after.Articles[0].SourceName)
	}
}

func TestGetArticlesServesStaleAndRefreshesInBackground(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{
		{fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha")},
		{fullArt("https://b.com/2", "Storm front approaches the coast", "Beta")},
	}}
	svc := newTestService(f, 30*time.Millisecond, 10*time.Minute)

	svc.GetArticles(context.Background(), Request{Category: "top"})
	time.Sleep(50 * time.Millisecond)

	stale := svc.GetArticles(context.Background(), Request{Category: "top"})
	if !stale.Cached || !stale.Stale {
		t.Fatalf("expected stale serve, cached=%v stale=%v", stale.Cached, stale.Stale)
	}
	if stale.Articles[0].SourceName != "Alpha" {
		t.Errorf("stale serve should return the old batch, got %q", stale.Articles[0].SourceName)
	}

	// Wait for the detached refresh to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.callCount() == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	fresh := svc.GetArticles(context.Background(), Request{Category: "top"})
	if fresh.Articles[0].SourceName != "Beta" {
		t.Errorf("background refresh did not replace the batch, got %q", fresh.Articles[0].SourceName)
	}
}

func TestGetArticlesQueryFilter(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha"),
		fullArt("https://b.com/2", "Storm front approaches the coast", "Beta"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	resp := svc.GetArticles(context.Background(), Request{Category: "top", Query: "BUDGET"})
	if len(resp.Articles) != 1 {
		t.Fatalf("expected 1 match, got %d", len(resp.Articles))
	}
	if !strings.Contains(resp.Articles[0].Title, "budget") {
		t.Errorf("wrong match: %q", resp.Articles[0].Title)
	}
}

func TestGetArticlesTrendingComputedOnce(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Election results spark protests", "Alpha"),
		fullArt("https://b.com/2", "Protests continue after election", "Beta"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	first := svc.GetArticles(context.Background(), Request{Category: "top", IncludeTrending: true})
	if len(first.Trending) == 0 {
		t.Fatal("expected trending topics")
	}

	second := svc.GetArticles(context.Background(), Request{Category: "top", IncludeTrending: true})
	if len(second.Trending) != len(first.Trending) {
		t.Errorf("trending changed between fresh calls: %d vs %d", len(second.Trending), len(first.Trending))
	}

	plain := svc.GetArticles(context.Background(), Request{Category: "top"})
	if len(plain.Trending) != 0 {
		t.Errorf("trending must be empty when not requested, got %d", len(plain.Trending))
	}
}

func TestGetArticlesPersonalizedReordering(t *testing.T) {
	now := time.Now()
	// Titles carry lean keyword signals so the pipeline scores them apart:
	// "green new deal" pushes left, "radical left" pushes right.
	left := fullArt("https://a.com/left", "Green new deal momentum builds statewide", "Alpha")
	left.PublishedAt = now
	right := fullArt("https://b.com/right", "Radical left blamed for budget impasse", "Beta")
	right.PublishedAt = now

	f := &stubFetcher{batches: [][]model.Article{{right, left}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	desired := -1.0
	resp := svc.GetArticles(context.Background(), Request{
		Category:     "top",
		Preference:   "reinforce",
		Personalized: true,
		UserLean:     &desired,
		Interests:    []string{"body text"}, // matches both so only lean alignment separates them
	})

	if len(resp.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(resp.Articles))
	}
	if resp.Articles[0].URL != "https://a.com/left" {
		t.Errorf("reinforce with left lean should rank the left article first, got %q", resp.Articles[0].URL)
	}
}

func TestGetArticlesResponseIsACopy(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	first := svc.GetArticles(context.Background(), Request{Category: "top"})
	first.Articles[0].Title = "mutated"

	second := svc.GetArticles(context.Background(), Request{Category: "top"})
	if second.Articles[0].Title == "mutated" {
		t.Error("caller mutation leaked into the cached batch")
	}
}

func TestClearCacheForcesRefetch(t *testing.T) {
	f := &stubFetcher{batches: [][]model.Article{{
		fullArt("https://a.com/1", "Parliament passes overnight budget deal", "Alpha"),
	}}}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	svc.GetArticles(context.Background(), Request{Category: "top"})
	svc.ClearCache()
	if st := svc.CacheStats(); st.Entries != 0 {
		t.Fatalf("expected empty cache after clear, got %d entries", st.Entries)
	}

	svc.GetArticles(context.Background(), Request{Category: "top"})
	if f.callCount() != 2 {
		t.Errorf("fetcher called %d times after clear, want 2", f.callCount())
	}
}

func TestGetLean(t *testing.T) {
	f := &stubFetcher{}
	svc := newTestService(f, time.Minute, 10*time.Minute)

	res := svc.GetLean("Reuters")
	if res.Label != model.LeanCenter {
		t.Errorf("Reuters lean = %q, want center", res.Label)
	}
}
