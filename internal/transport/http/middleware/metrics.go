package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	reqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "account",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by route and status.",
		}, []string{"route", "method", "status"},
	)
	reqLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "account",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"},
	)
)

func init() { prometheus.MustRegister(reqTotal, reqLatency) }

// Metrics labels by the matched route pattern, so /pwd/reset/:id stays one
// series instead of one per user id.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		reqTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		reqLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
