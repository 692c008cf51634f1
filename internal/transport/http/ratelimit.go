package http

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/chatbot-server/internal/metrics"
)

// maxTrackedClients caps the limiter map. The map is reset when it grows past it.
const maxTrackedClients = 10000

type rateLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	clients map[string]*rate.Limiter
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

func (r *rateLimiter) allow(key string) bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	lim, ok := r.clients[key]
	if !ok {
		if len(r.clients) >= maxTrackedClients {
			r.clients = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(r.rps, r.burst)
		r.clients[key] = lim
	}
	r.mu.Unlock()

	return lim.Allow()
}

// RateLimitMiddleware limits requests per client IP. A non-positive rps disables it.
func RateLimitMiddleware(rps float64, burst int, m *metrics.Metrics) gin.HandlerFunc {
	limiter := newRateLimiter(rps, burst)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			m.RateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
