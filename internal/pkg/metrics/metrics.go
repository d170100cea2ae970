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
		Namespace: "wandelroutes",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wandelroutes",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wandelroutes",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Route metrics
	RouteWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "routes",
		Name:      "writes_total",
		Help:      "Route writes by operation and outcome",
	}, []string{"operation", "outcome"})

	RouteDistanceKm = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wandelroutes",
		Subsystem: "routes",
		Name:      "saved_distance_km",
		Help:      "Distance of saved routes in kilometers",
		Buckets:   []float64{1, 2.5, 5, 7.5, 10, 15, 20, 30, 50},
	})

	GeometryDecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "geometry",
		Name:      "decode_errors_total",
		Help:      "Persisted or submitted geometry that failed to decode",
	}, []string{"source"})

	DistanceReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "routes",
		Name:      "distance_reconciled_total",
		Help:      "Routes whose stored distance was rewritten from their geometry",
	})

	// Editor metrics
	ActiveEditorSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wandelroutes",
		Subsystem: "editor",
		Name:      "active_sessions",
		Help:      "Current number of open editor sessions",
	})

	EditorEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "editor",
		Name:      "events_total",
		Help:      "Map events applied by editor sessions",
	}, []string{"type", "outcome"})

	ActiveViewers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wandelroutes",
		Subsystem: "ws",
		Name:      "active_viewers",
		Help:      "Current number of read-only route viewers",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wandelroutes",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wandelroutes",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wandelroutes",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wandelroutes",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// Outcome turns an error into an "ok"/"error" label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// route pattern keeps label cardinality bounded
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

// PoolStat is the subset of pgxpool.Stat the pool gauges read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies pool statistics into the gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))
}
