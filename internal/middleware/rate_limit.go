package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"market_chat/internal/metrics"
	"market_chat/internal/service"
	"market_chat/pkg/logger"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	limit            int
	log              logger.Logger
}

func NewRateLimitMiddleware(rateLimitService service.RateLimitService, requestsPerMinute int, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		limit:            requestsPerMinute,
		log:              log,
	}
}

func (m *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.limit <= 0 {
			c.Next()
			return
		}

		key := "http:" + c.ClientIP()
		window := 60 // seconds

		count, err := m.rateLimitService.Increment(c.Request.Context(), key, window)
		if err != nil {
			// fail open; Redis trouble should not take the API down
			m.log.Error("Rate limit increment failed", "error", err)
			c.Next()
			return
		}

		if count > int64(m.limit) {
			metrics.RateLimitHits.WithLabelValues("http").Inc()
			c.Header("X-RateLimit-Limit", strconv.Itoa(m.limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(m.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(m.limit-int(count)))
		c.Next()
	}
}
