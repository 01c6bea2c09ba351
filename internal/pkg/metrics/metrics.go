package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vlille",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vlille",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vlille",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Upstream feed metrics
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vlille",
		Subsystem: "feed",
		Name:      "requests_total",
		Help:      "Total requests sent to the station feed",
	}, []string{"endpoint", "outcome"})

	FeedRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vlille",
		Subsystem: "feed",
		Name:      "request_duration_seconds",
		Help:      "Latency of station feed requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	FeedParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vlille",
		Subsystem: "feed",
		Name:      "parse_failures_total",
		Help:      "Feed payloads that could not be decoded",
	}, []string{"endpoint"})

	// Network metrics
	StationsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vlille",
		Subsystem: "network",
		Name:      "stations_loaded",
		Help:      "Number of stations in the last successful load",
	})

	NetworkLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vlille",
		Subsystem: "network",
		Name:      "loads_total",
		Help:      "Network loads by outcome",
	}, []string{"outcome"})

	NetworkLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vlille",
		Subsystem: "network",
		Name:      "load_duration_seconds",
		Help:      "Duration of a full network load",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "vlille",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})
)

// Outcome labels shared by the feed and network counters.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ObserveNetworkLoad records one network load attempt.
func ObserveNetworkLoad(start time.Time, stations int, err error) {
	NetworkLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		NetworkLoads.WithLabelValues(OutcomeError).Inc()
		return
	}
	NetworkLoads.WithLabelValues(OutcomeSuccess).Inc()
	StationsLoaded.Set(float64(stations))
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// fiber resolves the route pattern, which keeps station ids out of labels
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
