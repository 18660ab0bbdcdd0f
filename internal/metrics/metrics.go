package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ArticlesProcessed   int64
	DuplicatesFiltered  int64
	IncompleteDropped   int64
	SourceFailures      int64
	CacheHits           int64
	CacheMisses         int64
	StaleServes         int64
	BackgroundRefreshes int64
	SummarizerCalls     int64
	SummarizerFallbacks int64

	// Timings
	LastFetchTime    time.Duration
	AverageFetchTime time.Duration
	TotalFetchTime   time.Duration
	FetchCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddArticlesProcessed(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesProcessed += n
}

func (m *Metrics) AddDuplicatesFiltered(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += n
}

func (m *Metrics) AddIncompleteDropped(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IncompleteDropped += n
}

func (m *Metrics) IncrementSourceFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFailures++
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) IncrementCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *Metrics) IncrementStaleServes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaleServes++
}

func (m *Metrics) IncrementBackgroundRefreshes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackgroundRefreshes++
}

func (m *Metrics) IncrementSummarizerCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummarizerCalls++
}

func (m *Metrics) IncrementSummarizerFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SummarizerFallbacks++
}

func (m *Metrics) RecordFetchTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastFetchTime = duration
	m.TotalFetchTime += duration
	m.FetchCount++

	if m.FetchCount > 0 {
		m.AverageFetchTime = m.TotalFetchTime / time.Duration(m.FetchCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"articles_processed":    m.ArticlesProcessed,
		"duplicates_filtered":   m.DuplicatesFiltered,
		"incomplete_dropped":    m.IncompleteDropped,
		"source_failures":       m.SourceFailures,
		"cache_hits":            m.CacheHits,
		"cache_misses":          m.CacheMisses,
		"stale_serves":          m.StaleServes,
		"background_refreshes":  m.BackgroundRefreshes,
		"summarizer_calls":      m.SummarizerCalls,
		"summarizer_fallbacks":  m.SummarizerFallbacks,
		"last_fetch_time_ms":    m.LastFetchTime.Milliseconds(),
		"average_fetch_time_ms": m.AverageFetchTime.Milliseconds(),
		"last_run_time":         m.LastRunTime.Format(time.RFC3339),
		"last_error_time":       m.LastErrorTime.Format(time.RFC3339),
		"last_error":            m.LastError,
		"is_healthy":            m.IsHealthy,
	}
}
