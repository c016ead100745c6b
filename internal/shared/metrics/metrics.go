package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the analysis and backend counters.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// Metrics bundles Prometheus collectors for the service.
type Metrics struct {
	Registry         *prometheus.Registry
	HTTPRequests     *prometheus.CounterVec
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	BackendRequests  *prometheus.CounterVec
	BackendDuration  *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec
	RateLimited      *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route and status.",
		},
		[]string{"route", "status"},
	)
	analyses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_analyses_total",
			Help: "Review scoring runs, by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_analysis_duration_seconds",
			Help:    "Time spent scoring a review batch.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"endpoint"},
	)
	backendRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Requests issued to the crawler backend, by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	backendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Crawler backend request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)

	rateLimited := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the inbound rate limiter, by group.",
		},
		[]string{"group"},
	)

	registry.MustRegister(
		httpRequests, analyses, analysisDuration, backendRequests, backendDuration, breakerState, rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:         registry,
		HTTPRequests:     httpRequests,
		AnalysesTotal:    analyses,
		AnalysisDuration: analysisDuration,
		BackendRequests:  backendRequests,
		BackendDuration:  backendDuration,
		BreakerState:     breakerState,
		RateLimited:      rateLimited,
	}
}

// ObserveAnalysis records one scoring run.
func (m *Metrics) ObserveAnalysis(endpoint, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(endpoint, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.AnalysisDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// ObserveBackend records one backend call.
func (m *Metrics) ObserveBackend(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(operation, outcome).Inc()
	m.BackendDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// SetBreakerState publishes a breaker state as a gauge value.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

// ObserveRateLimited counts one request rejected with 429.
func (m *Metrics) ObserveRateLimited(group string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(group).Inc()
}

// Middleware counts requests by matched route and status.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Status(http.StatusNotFound) }
	}
	h := promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
