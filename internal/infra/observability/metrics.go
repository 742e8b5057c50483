package observability

import (
	"net/http"
	"time"

	"github.com/notainsight/nota-insight-bff-go/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	backendErrors   *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	reviewSessions  prometheus.Gauge
	confirmResults  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bff_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		backendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_backend_errors_total",
				Help: "Total errors from the invoice backend API.",
			},
			[]string{"endpoint"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		reviewSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bff_review_sessions_active",
				Help: "Review sessions currently open.",
			},
		),
		confirmResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bff_confirm_results_total",
				Help: "Invoice confirmation outcomes.",
			},
			[]string{"result"}, // confirmed, invalid_cnpj, duplicate, blocked, error
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrBackendError increments the backend error counter.
func (m *Metrics) IncrBackendError(endpoint string) {
	m.backendErrors.WithLabelValues(endpoint).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// RequestCounterMiddleware feeds bff_requests_total, which backs the usage
// snapshot on the admin metrics panel. 4xx and 5xx responses count as errors.
func (m *Metrics) RequestCounterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if ww.Status() >= 400 {
			m.IncrRequest("error")
		} else {
			m.IncrRequest("success")
		}
	})
}

// SetReviewSessions records the current number of open review sessions.
func (m *Metrics) SetReviewSessions(n int) {
	m.reviewSessions.Set(float64(n))
}

// IncrConfirmResult records one invoice confirmation outcome.
func (m *Metrics) IncrConfirmResult(result string) {
	m.confirmResults.WithLabelValues(result).Inc()
}

// GetUsageSnapshot returns a snapshot suitable for GET /v1/admin/metrics.
func (m *Metrics) GetUsageSnapshot(activeSessions int) *domain.UsageMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "resources")
	cacheMisses := getCounterValue(m.cacheMisses, "resources")

	errorRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.UsageMetrics{
		TotalRequests:  totalRequests,
		ErrorRate:      errorRate,
		CacheHitRate:   cacheHitRate,
		ActiveSessions: activeSessions,
		Period:         "process_lifetime",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
