// Package api is the thin HTTP layer over the aggregation core: routes,
// CORS and JSON serialization only. No pipeline logic lives here.
package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prismfeed/prism/internal/aggregator"
	"github.com/prismfeed/prism/internal/metrics"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(svc *aggregator.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/api/news", handleNews(svc))
	r.GET("/api/lean", handleLean(svc))
	r.GET("/api/cache/stats", handleCacheStats(svc))
	r.POST("/api/cache/clear", handleCacheClear(svc))

	r.GET("/healthz", handleHealth)
	r.GET("/metrics", handleMetrics)
	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func handleNews(svc *aggregator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := aggregator.Request{
			Category:        c.Query("category"),
			Preference:      c.Query("preference"),
			Query:           c.Query("q"),
			IncludeTrending: boolQuery(c, "trending"),
			ForceRefresh:    boolQuery(c, "refresh"),
			Personalized:    boolQuery(c, "personalized"),
			Interests:       splitInterests(c.Query("interests")),
		}
		if v := c.Query("lean"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				req.UserLean = &f
			}
		}

		c.JSON(http.StatusOK, svc.GetArticles(c.Request.Context(), req))
	}
}

func handleLean(svc *aggregator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		source := c.Query("source")
		if source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "source parameter is required"})
			return
		}
		res := svc.GetLean(source)
		c.JSON(http.StatusOK, gin.H{"lean": res.Label, "score": res.Score})
	}
}

func handleCacheStats(svc *aggregator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := svc.CacheStats()
		c.JSON(http.StatusOK, gin.H{
			"entries":     stats.Entries,
			"trending":    stats.Trending,
			"trendingAge": stats.TrendingAge.Milliseconds(),
		})
	}
}

func handleCacheClear(svc *aggregator.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc.ClearCache()
		c.JSON(http.StatusOK, gin.H{"cleared": true})
	}
}

func handleHealth(c *gin.Context) {
	stats := metrics.Global.GetStats()
	status := http.StatusOK
	state := "ok"
	if healthy, ok := stats["is_healthy"].(bool); ok && !healthy {
		status = http.StatusServiceUnavailable
		state = "error"
	}
	c.JSON(status, gin.H{
		"status":     state,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Global.GetStats())
}

func boolQuery(c *gin.Context, key string) bool {
	return strings.EqualFold(c.Query(key), "true")
}

func splitInterests(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
