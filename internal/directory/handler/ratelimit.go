package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var dirThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "directory_throttled_requests_total",
	Help: "Requests rejected by the per-IP rate limiter.",
})

// Liveness and scrape endpoints are never throttled: a busy instance must
// stay observable.
var throttleExempt = map[string]struct{}{
	"/healthz": {},
	"/metrics": {},
}

// clientBuckets holds one token bucket per client IP and evicts buckets
// that have been idle longer than their ttl.
type clientBuckets struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rps     rate.Limit
	burst   int
	ttl     time.Duration
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newClientBuckets(rps, burst int, ttl time.Duration) *clientBuckets {
	return &clientBuckets{
		buckets: make(map[string]*bucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
}

// allow reports whether the client may proceed, creating its bucket on
// first sight.
func (cb *clientBuckets) allow(ip string) bool {
	cb.mu.Lock()
	b, ok := cb.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(cb.rps, cb.burst)}
		cb.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	cb.mu.Unlock()

	return b.lim.Allow()
}

// sweep drops buckets idle past the ttl. Called periodically by the janitor.
func (cb *clientBuckets) sweep() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cutoff := time.Now().Add(-cb.ttl)
	for ip, b := range cb.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(cb.buckets, ip)
		}
	}
}

func (cb *clientBuckets) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		cb.sweep()
	}
}

// RateLimiter returns a Gin middleware enforcing per-IP token-bucket rate
// limiting. rps is the steady-state requests per second, burst the maximum
// burst size. Throttled requests are counted in the metrics and answered
// with 429 and a Retry-After hint.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	cb := newClientBuckets(rps, burst, 10*time.Minute)
	go cb.janitor(5 * time.Minute)

	return func(c *gin.Context) {
		if _, exempt := throttleExempt[c.Request.URL.Path]; exempt {
			c.Next()
			return
		}

		if !cb.allow(c.ClientIP()) {
			dirThrottledTotal.Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
