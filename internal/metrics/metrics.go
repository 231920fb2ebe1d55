package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration records request duration in seconds
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bazaar_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// AdmissionDecisions counts registration decisions by outcome
	// ("accepted" or the refusal kind).
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_admission_decisions_total",
			Help: "Registration submit/review decisions by outcome",
		},
		[]string{"operation", "outcome"},
	)

	// SideEffectFailures counts audit/event writes that failed after a commit.
	SideEffectFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_side_effect_failures_total",
			Help: "Best-effort audit log and event publish failures",
		},
		[]string{"kind"},
	)
)

func ObserveAdmission(operation, outcome string) {
	AdmissionDecisions.WithLabelValues(operation, outcome).Inc()
}

// WatchConnections exports the number of open websocket connections,
// read from count at scrape time.
func WatchConnections(reg prometheus.Registerer, count func() int) error {
	return reg.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "bazaar_websocket_connections",
			Help: "Open websocket connections",
		},
		func() float64 { return float64(count()) },
	))
}

// Middleware records request count and latency per route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		path := c.Route().Path
		statusStr := strconv.Itoa(status)

		RequestCounter.WithLabelValues(c.Method(), path, statusStr).Inc()
		RequestDuration.WithLabelValues(c.Method(), path, statusStr).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
