package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP settings
	Addr string

	// Feed settings
	FeedsConfigPath string
	DefaultCategory string
	MaxPerFeed      int // items taken per source feed
	FetchTimeout    time.Duration

	// Enrichment settings
	ScrapeConcurrency int // parallel fetches for full article extraction
	ScrapeTimeout     time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration

	// Pipeline settings
	MaxPerSource    int     // diversification cap per source
	TitleSimilarity float64 // near-duplicate title threshold

	// Cache settings
	CacheSoftTTL time.Duration
	CacheHardTTL time.Duration
	TrendingTTL  time.Duration
	LockTimeout  time.Duration

	// AI settings (optional; heuristic fallback when absent)
	GeminiAPIKey  string
	OpenAIAPIKey  string
	MaxAIRequests int // per provider per day (0 = unlimited)

	// App settings
	Debug bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		Addr:              ":8080",
		FeedsConfigPath:   "configs/feeds.yaml",
		DefaultCategory:   "top",
		MaxPerFeed:        15,
		FetchTimeout:      10 * time.Second,
		ScrapeConcurrency: 8,
		ScrapeTimeout:     4 * time.Second,
		RetryAttempts:     2,
		RetryDelay:        500 * time.Millisecond,
		MaxPerSource:      5,
		TitleSimilarity:   0.85,
		CacheSoftTTL:      3 * time.Minute,
		CacheHardTTL:      10 * time.Minute,
		TrendingTTL:       5 * time.Minute,
		LockTimeout:       5 * time.Second,
		MaxAIRequests:     200,
	}

	// Load from environment
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")

	cfg.Addr = getEnvOrDefault("PRISM_ADDR", cfg.Addr)
	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.DefaultCategory = getEnvOrDefault("DEFAULT_CATEGORY", cfg.DefaultCategory)

	cfg.MaxPerFeed = getEnvIntOrDefault("MAX_PER_FEED", cfg.MaxPerFeed)
	cfg.MaxPerSource = getEnvIntOrDefault("MAX_PER_SOURCE", cfg.MaxPerSource)
	cfg.ScrapeConcurrency = getEnvIntOrDefault("SCRAPE_CONCURRENCY", cfg.ScrapeConcurrency)
	cfg.RetryAttempts = getEnvIntOrDefault("RETRY_ATTEMPTS", cfg.RetryAttempts)
	cfg.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", cfg.MaxAIRequests)

	cfg.FetchTimeout = getEnvDurationOrDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.ScrapeTimeout = getEnvDurationOrDefault("SCRAPE_TIMEOUT", cfg.ScrapeTimeout)
	cfg.CacheSoftTTL = getEnvDurationOrDefault("CACHE_SOFT_TTL", cfg.CacheSoftTTL)
	cfg.CacheHardTTL = getEnvDurationOrDefault("CACHE_HARD_TTL", cfg.CacheHardTTL)
	cfg.TrendingTTL = getEnvDurationOrDefault("TRENDING_TTL", cfg.TrendingTTL)
	cfg.LockTimeout = getEnvDurationOrDefault("LOCK_TIMEOUT", cfg.LockTimeout)

	if v := os.Getenv("TITLE_SIMILARITY"); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil && val > 0 && val <= 1 {
			cfg.TitleSimilarity = val
		}
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("PRISM_ADDR must not be empty")
	}
	if c.CacheSoftTTL >= c.CacheHardTTL {
		return fmt.Errorf("CACHE_SOFT_TTL (%s) must be below CACHE_HARD_TTL (%s)", c.CacheSoftTTL, c.CacheHardTTL)
	}
	if c.ScrapeConcurrency < 1 {
		return fmt.Errorf("SCRAPE_CONCURRENCY must be at least 1")
	}
	return nil
}
