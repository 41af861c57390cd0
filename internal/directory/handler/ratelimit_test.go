package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/neurodir/neurodir/internal/directory/handler"
)

func TestRateLimiterThrottlesAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler.RateLimiter(1, 2))
	r.GET("/api/v1/profiles", func(c *gin.Context) { c.Status(http.StatusOK) })

	var statuses []int
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil))
		statuses = append(statuses, w.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("burst-sized requests should pass, got %v", statuses)
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the bucket is drained, got %v", statuses)
	}
}

func TestRateLimiterExemptsLivenessEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handler.RateLimiter(1, 1))
	r.GET("/api/v1/profiles", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Drain the client's bucket.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz should bypass throttling, got %d", w.Code)
	}
}
