package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
)

// Metrics holds the HTTP metrics of the server. They are registered in the
// same registry as the lab metrics so /metrics exports both.
type Metrics struct {
	handler        http.Handler
	activeRequests prometheus.Gauge
	requestsTotal  prometheus.Counter
	responses      *prometheus.CounterVec
	duration       prometheus.Histogram
}

// NewMetrics creates server metrics in a fresh lab registry.
func NewMetrics() *Metrics {
	return NewMetricsFor(metrics.New())
}

// NewMetricsFor registers the server metrics in reg.
func NewMetricsFor(reg *metrics.Registry) *Metrics {
	m := &Metrics{
		handler: reg.Handler(),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "active_requests",
			Help:      "HTTP requests currently being served.",
		}),
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "requests_total",
			Help:      "HTTP requests received.",
		}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "responses_total",
			Help:      "HTTP responses by status code.",
		}, []string{"code"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metrics.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Time to serve an HTTP request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.Registerer().MustRegister(m.activeRequests, m.requestsTotal, m.responses, m.duration)
	return m
}

// IncrementActiveRequests marks the start of a request.
func (m *Metrics) IncrementActiveRequests() {
	m.activeRequests.Inc()
	m.requestsTotal.Inc()
}

// DecrementActiveRequests marks the end of a request.
func (m *Metrics) DecrementActiveRequests() {
	m.activeRequests.Dec()
}

// WritePrometheus serves every registered metric.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func (m *Metrics) observe(code int, elapsed time.Duration) {
	m.responses.WithLabelValues(strconv.Itoa(code)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware tracks active requests, response codes and latency.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.observe(rec.status, time.Since(start))
	}
}

// handleMetrics serves the Prometheus exposition on GET.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.logger.Warn("metrics request rejected", logging.String("method", r.Method))
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}
