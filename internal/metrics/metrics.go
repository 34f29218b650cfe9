package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cleancook",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleancook",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cleancook",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	domainEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleancook",
			Subsystem: "community",
			Name:      "events_total",
			Help:      "Community writes by kind (story_created, story_liked, thread_created, comment_created).",
		},
		[]string{"kind"},
	)

	statsFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleancook",
			Subsystem: "stats",
			Name:      "query_failures_total",
			Help:      "Stats queries that failed and were replaced by a zero value.",
		},
		[]string{"metric"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cleancook",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)

	countersRepaired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cleancook",
			Subsystem: "reconcile",
			Name:      "rows_repaired_total",
			Help:      "Rows whose denormalized counter was rewritten by the reconciler.",
		},
		[]string{"table"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		domainEvents,
		statsFallbacks,
		rateLimited,
		countersRepaired,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency labelled by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		httpInFlight.Inc()
		start := time.Now()
		c.Next()
		httpInFlight.Dec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent counts a successful community write.
func RecordEvent(kind string) {
	domainEvents.WithLabelValues(kind).Inc()
}

// RecordStatsFallback counts a stats query that degraded to its default.
func RecordStatsFallback(metric string) {
	statsFallbacks.WithLabelValues(metric).Inc()
}

// RecordRateLimited counts a request rejected by the rate limiter.
func RecordRateLimited() {
	rateLimited.Inc()
}

// RecordRepaired counts rows rewritten by the counter reconciler.
func RecordRepaired(table string, rows int64) {
	countersRepaired.WithLabelValues(table).Add(float64(rows))
}
