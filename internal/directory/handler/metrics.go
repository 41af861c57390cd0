package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dirProfilesTotal = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "directory_profiles_total",
		Help: "Total number of profiles by visibility.",
	}, []string{"visibility"})

	dirRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "directory_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	dirRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "directory_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		dirRequestsTotal.WithLabelValues(method, path, status).Inc()
		dirRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// SetProfilesGauge sets the profile count gauge for a given visibility.
func SetProfilesGauge(visibility string, count float64) {
	dirProfilesTotal.WithLabelValues(visibility).Set(count)
}
