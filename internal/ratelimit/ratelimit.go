package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/prismfeed/prism/internal/logger"
)

// AILimiter tracks daily request budgets per summarization provider so a
// best-effort enrichment run can never exhaust API quota.
type AILimiter struct {
	mu        sync.Mutex
	counts    map[string]int
	limits    map[string]int // 0 = unlimited
	total     int
	maxTotal  int
	resetTime time.Time
}

func NewAILimiter(limits map[string]int, maxTotal int) *AILimiter {
	l := &AILimiter{
		counts:    make(map[string]int),
		limits:    make(map[string]int, len(limits)),
		maxTotal:  maxTotal,
		resetTime: time.Now().Add(24 * time.Hour), // Reset daily
	}
	for provider, max := range limits {
		l.limits[provider] = max
	}
	return l
}

// Allow checks whether a request to the provider fits the budget.
func (l *AILimiter) Allow(provider string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if max := l.limits[provider]; max > 0 && l.counts[provider] >= max {
		logger.Warn("ai rate limit reached", "provider", provider, "used", l.counts[provider], "limit", max)
		return false
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		logger.Warn("total ai rate limit reached", "used", l.total, "limit", l.maxTotal)
		return false
	}
	return true
}

// Use consumes one request from the provider's budget.
func (l *AILimiter) Use(provider string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if max := l.limits[provider]; max > 0 && l.counts[provider] >= max {
		return fmt.Errorf("%s rate limit exceeded", provider)
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		return fmt.Errorf("total ai rate limit exceeded")
	}

	l.counts[provider]++
	l.total++
	return nil
}

func (l *AILimiter) checkReset() {
	if time.Now().After(l.resetTime) {
		l.counts = make(map[string]int)
		l.total = 0
		l.resetTime = time.Now().Add(24 * time.Hour)
	}
}

// Stats returns current usage per provider.
func (l *AILimiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  l.total,
		"total_limit": l.maxTotal,
		"reset_time":  l.resetTime,
	}
	for provider, count := range l.counts {
		stats[provider+"_used"] = count
		stats[provider+"_limit"] = l.limits[provider]
	}
	return stats
}
