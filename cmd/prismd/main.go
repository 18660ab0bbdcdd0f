package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/prismfeed/prism/internal/aggregator"
	"github.com/prismfeed/prism/internal/api"
	"github.com/prismfeed/prism/internal/cache"
	"github.com/prismfeed/prism/internal/config"
	"github.com/prismfeed/prism/internal/feeds"
	"github.com/prismfeed/prism/internal/logger"
	"github.com/prismfeed/prism/internal/ratelimit"
	"github.com/prismfeed/prism/internal/scrape"
	"github.com/prismfeed/prism/internal/summarize"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.FeedsConfigPath)
	if err != nil {
		log.Fatalf("loading source catalog: %v", err)
	}

	store := cache.New(cfg.CacheSoftTTL, cfg.CacheHardTTL)
	fetcher := feeds.NewClient(catalog, cfg.DefaultCategory, cfg.MaxPerFeed)
	enricher := scrape.NewEnricher(cfg.ScrapeConcurrency, cfg.ScrapeTimeout, cfg.RetryAttempts, cfg.RetryDelay)

	limiter := ratelimit.NewAILimiter(map[string]int{
		"gemini": cfg.MaxAIRequests,
		"openai": cfg.MaxAIRequests,
	}, cfg.MaxAIRequests*2)
	summarizer := summarize.NewService(pickBackend(cfg), limiter)

	svc := aggregator.New(fetcher, enricher, summarizer, store, aggregator.Options{
		MaxPerSource:    cfg.MaxPerSource,
		TitleSimilarity: cfg.TitleSimilarity,
		FetchTimeout:    cfg.FetchTimeout,
		LockTimeout:     cfg.LockTimeout,
		TrendingTTL:     cfg.TrendingTTL,
	})

	router := api.NewRouter(svc)
	logger.Info("starting prismd", "addr", cfg.Addr, "categories", len(catalog.Categories))
	if err := router.Run(cfg.Addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// pickBackend wires the first configured generative backend; without API
// keys the heuristic summarizer carries the load alone.
func pickBackend(cfg *config.Config) summarize.Backend {
	if cfg.GeminiAPIKey != "" {
		backend, err := summarize.NewGemini(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Warn("gemini unavailable, continuing without it", "err", err)
		} else {
			return backend
		}
	}
	if cfg.OpenAIAPIKey != "" {
		return summarize.NewOpenAI(cfg.OpenAIAPIKey)
	}
	return nil
}
