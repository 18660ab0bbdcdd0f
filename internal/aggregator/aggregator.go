// Package aggregator composes feed fetching, enrichment, deduplication,
// diversification, caching and ranking into the end-to-end "get articles
// for category X" operation.
package aggregator

import (
	"context"
	"strings"
	"time"

	"github.com/prismfeed/prism/internal/cache"
	"github.com/prismfeed/prism/internal/lean"
	"github.com/prismfeed/prism/internal/logger"
	"github.com/prismfeed/prism/internal/metrics"
	"github.com/prismfeed/prism/internal/model"
	"github.com/prismfeed/prism/internal/pipeline"
	"github.com/prismfeed/prism/internal/rank"
	"github.com/prismfeed/prism/internal/summarize"
	"github.com/prismfeed/prism/internal/trending"
)

// Fetcher retrieves all articles for a category. Implemented by
// feeds.Client; stubbed in tests.
type Fetcher interface {
	Normalize(category string) string
	FetchCategory(ctx context.Context, category string) []model.Article
}

// Enricher adds full text and page media to articles in place.
type Enricher interface {
	EnrichAll(ctx context.Context, articles []*model.Article)
}

// Options bound the pipeline.
type Options struct {
	MaxPerSource    int
	TitleSimilarity float64
	FetchTimeout    time.Duration
	LockTimeout     time.Duration
	TrendingTTL     time.Duration
}

type Service struct {
	fetcher    Fetcher
	enricher   Enricher
	summarizer *summarize.Service
	store      *cache.Store
	opts       Options
}

func New(fetcher Fetcher, enricher Enricher, summarizer *summarize.Service, store *cache.Store, opts Options) *Service {
	if opts.MaxPerSource <= 0 {
		opts.MaxPerSource = 5
	}
	if opts.TitleSimilarity <= 0 {
		opts.TitleSimilarity = pipeline.SimilarityThreshold
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}
	if opts.TrendingTTL <= 0 {
		opts.TrendingTTL = 5 * time.Minute
	}
	return &Service{
		fetcher:    fetcher,
		enricher:   enricher,
		summarizer: summarizer,
		store:      store,
		opts:       opts,
	}
}

// Request is the boundary contract consumed from the thin HTTP layer.
type Request struct {
	Category        string
	Preference      string
	Query           string
	UserLean        *float64
	IncludeTrending bool
	ForceRefresh    bool
	Personalized    bool
	Interests       []string
}

// Response is always JSON-serializable and never reports a hard error.
type Response struct {
	Articles []model.Article `json:"articles"`
	Trending []model.Topic   `json:"trending"`
	Cached   bool            `json:"cached"`
	Stale    bool            `json:"stale,omitempty"`
}

// GetArticles runs the cache-first aggregation state machine.
func (s *Service) GetArticles(ctx context.Context, req Request) *Response {
	category := s.fetcher.Normalize(req.Category)
	preference := model.ParseMode(req.Preference)

	var (
		articles []model.Article
		cached   bool
		stale    bool
	)

	if !req.ForceRefresh {
		if data, isStale, ok := s.store.Get(category, preference); ok {
			metrics.Global.IncrementCacheHits()
			articles, cached, stale = data, true, isStale
			if isStale {
				metrics.Global.IncrementStaleServes()
				s.spawnRefresh(category, preference)
			}
		}
	}

	if !cached {
		metrics.Global.IncrementCacheMisses()
		fetched := s.fetchPipeline(ctx, category)
		if len(fetched) == 0 {
			// Total fetch failure: degraded-but-valid response. The old
			// entry, if any, stays in place as last known good.
			logger.Warn("all sources failed", "category", category)
			return &Response{
				Articles: []model.Article{placeholderArticle(category)},
				Trending: []model.Topic{},
			}
		}
		s.store.Set(category, fetched, preference)
		articles = fetched
	}

	resp := &Response{Cached: cached, Stale: stale, Trending: []model.Topic{}}
	if req.IncludeTrending {
		resp.Trending = s.trendingTopics(articles)
	}

	result := articles
	if req.Query != "" {
		result = filterQuery(result, req.Query)
	}
	// Personalization needs a declared interest list; a bare flag is a no-op.
	if req.Personalized && len(req.Interests) > 0 {
		result = personalized(result, req, preference)
	}

	// Callers must never mutate cached batches, so hand out a copy.
	resp.Articles = append([]model.Article(nil), result...)
	return resp
}

// GetLean classifies from the source identity alone.
func (s *Service) GetLean(sourceName string) lean.Result {
	return lean.SourceLean(sourceName)
}

// ClearCache wipes all cached batches and trending topics.
func (s *Service) ClearCache() {
	s.store.Clear()
}

// CacheStats reports cache occupancy for operators.
func (s *Service) CacheStats() cache.Stats {
	return s.store.Stats()
}

// fetchPipeline is the CACHE_MISS path: fetch, enrich, score, dedupe,
// diversify, filter.
func (s *Service) fetchPipeline(ctx context.Context, category string) []model.Article {
	start := time.Now()
	defer func() {
		metrics.Global.RecordFetchTime(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	articles := s.fetcher.FetchCategory(ctx, category)
	metrics.Global.AddArticlesProcessed(int64(len(articles)))
	if len(articles) == 0 {
		return nil
	}

	ptrs := make([]*model.Article, len(articles))
	for i := range articles {
		ptrs[i] = &articles[i]
	}
	if s.enricher != nil {
		s.enricher.EnrichAll(ctx, ptrs)
	}

	for i := range articles {
		a := &articles[i]
		res := lean.Score(a.Title+" "+a.Description+" "+a.Content, a.SourceName, a.URL)
		a.Lean = res.Label
		a.LeanScore = res.Score
		a.LeanReasons = res.Reasons
		a.ReadTime = model.EstimateReadTime(a.Content)
		a.Category = category
		a.ID = a.URL
		if a.Summary == "" && s.summarizer != nil {
			a.Summary = s.summarizer.Summarize(ctx, a.Title, a.Content)
		}
	}

	deduped := pipeline.DedupeThreshold(articles, s.opts.TitleSimilarity)
	metrics.Global.AddDuplicatesFiltered(int64(len(articles) - len(deduped)))

	diversified := pipeline.Diversify(deduped, s.opts.MaxPerSource)

	complete := pipeline.FilterComplete(diversified)
	metrics.Global.AddIncompleteDropped(int64(len(diversified) - len(complete)))

	logger.Info("fetch cycle complete",
		"category", category,
		"fetched", len(articles),
		"deduped", len(deduped),
		"kept", len(complete),
		"took", time.Since(start))
	return complete
}

// spawnRefresh starts a detached background refresh for a stale key if
// the stampede lock can be taken. A second trigger while one refresh is
// in flight is a no-op.
func (s *Service) spawnRefresh(category, preference string) {
	key := cache.Key(category, preference)
	if !s.store.AcquireLock(key, s.opts.LockTimeout) {
		logger.Debug("refresh already in flight", "key", key)
		return
	}

	go func() {
		defer s.store.ReleaseLock(key)
		metrics.Global.IncrementBackgroundRefreshes()

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.FetchTimeout)
		defer cancel()

		fresh := s.fetchPipeline(ctx, category)
		if len(fresh) == 0 {
			logger.Warn("background refresh produced nothing, keeping stale entry", "key", key)
			return
		}
		s.store.Set(category, fresh, preference)
		logger.Info("background refresh complete", "key", key, "articles", len(fresh))
	}()
}

// trendingTopics serves cached topics while fresh and recomputes from the
// current batch otherwise.
func (s *Service) trendingTopics(articles []model.Article) []model.Topic {
	if topics, age, ok := s.store.GetTrending(); ok && age <= s.opts.TrendingTTL {
		return topics
	}
	topics := trending.Detect(articles)
	s.store.SetTrending(topics)
	return topics
}

func personalized(articles []model.Article, req Request, preference string) []model.Article {
	profile := model.Profile{
		Interests:   req.Interests,
		DesiredLean: req.UserLean,
		Mode:        preference,
	}
	scored := rank.Personalize(articles, profile)
	out := make([]model.Article, len(scored))
	for i, sc := range scored {
		out[i] = sc.Article
	}
	return out
}

// filterQuery keeps articles whose title or description contains the
// query, case-insensitively.
func filterQuery(articles []model.Article, query string) []model.Article {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return articles
	}
	out := make([]model.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Description), q) {
			out = append(out, a)
		}
	}
	return out
}

func placeholderArticle(category string) model.Article {
	now := time.Now()
	return model.Article{
		ID:          "placeholder",
		URL:         "",
		Title:       "No articles available",
		Description: "All configured sources for this category are currently unreachable. Please try again shortly.",
		SourceName:  "Prism",
		Category:    category,
		PublishedAt: now,
		Lean:        model.LeanCenter,
		Media:       model.Media{Images: []model.Image{}, Videos: []model.Video{}},
	}
}
