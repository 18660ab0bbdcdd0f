// Package summarize provides best-effort article summaries. A generative
// backend (Gemini or OpenAI) is optional; the heuristic fallback always
// works, so the pipeline never depends on an API key being present.
package summarize

import (
	"context"
	"strings"

	"github.com/prismfeed/prism/internal/logger"
	"github.com/prismfeed/prism/internal/metrics"
	"github.com/prismfeed/prism/internal/ratelimit"
)

// Backend is a generative summarization provider.
type Backend interface {
	Name() string
	Summarize(ctx context.Context, title, content string) (string, error)
}

// Service wraps an optional backend with budget limiting and the
// heuristic fallback. Summarize never fails.
type Service struct {
	backend Backend
	limiter *ratelimit.AILimiter
}

func NewService(backend Backend, limiter *ratelimit.AILimiter) *Service {
	return &Service{backend: backend, limiter: limiter}
}

// Summarize returns a short summary of the article. Backend errors, rate
// budget exhaustion or a missing backend all fall back to the heuristic.
func (s *Service) Summarize(ctx context.Context, title, content string) string {
	if summary, ok := s.tryBackend(ctx, title, content); ok {
		return summary
	}
	metrics.Global.IncrementSummarizerFallbacks()
	return Heuristic(content)
}

func (s *Service) tryBackend(ctx context.Context, title, content string) (string, bool) {
	if s.backend == nil {
		return "", false
	}
	if s.limiter != nil {
		if err := s.limiter.Use(s.backend.Name()); err != nil {
			return "", false
		}
	}

	metrics.Global.IncrementSummarizerCalls()
	summary, err := s.backend.Summarize(ctx, title, content)
	if err != nil {
		logger.Debug("backend summary failed", "backend", s.backend.Name(), "err", err)
		return "", false
	}
	summary = strings.TrimSpace(summary)
	return summary, summary != ""
}

// Heuristic picks the first two substantial sentences, falling back to a
// truncation when the text has none.
func Heuristic(content string) string {
	c := strings.TrimSpace(content)
	if c == "" {
		return ""
	}
	sentences := strings.Split(c, ".")
	var picked []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if len(s) < 25 {
			continue
		}
		picked = append(picked, s)
		if len(picked) >= 2 {
			break
		}
	}
	if len(picked) == 0 {
		if len(c) > 160 {
			return c[:160] + "..."
		}
		return c
	}
	return strings.Join(picked, ". ") + "."
}
