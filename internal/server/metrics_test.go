package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
)

func TestMetrics_ActiveRequests(t *testing.T) {
	t.Parallel()
	m := NewMetrics()

	m.IncrementActiveRequests()
	m.IncrementActiveRequests()
	assert.InDelta(t, 2, testutil.ToFloat64(m.activeRequests), 0)
	m.DecrementActiveRequests()
	assert.InDelta(t, 1, testutil.ToFloat64(m.activeRequests), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.requestsTotal), 0)
}

func TestMetricsFor_SharesLabRegistry(t *testing.T) {
	t.Parallel()
	reg := metrics.New()
	m := NewMetricsFor(reg)
	m.IncrementActiveRequests()

	rec := httptest.NewRecorder()
	m.WritePrometheus(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	body := rec.Body.String()
	for _, want := range []string{"parreduce_active_requests 1", "parreduce_requests_total 1", "parreduce_heap_alloc_bytes", "go_goroutines"} {
		assert.Contains(t, body, want)
	}
}

func TestServer_metricsMiddleware(t *testing.T) {
	t.Parallel()
	s := &Server{metrics: NewMetrics()}

	codes := []int{http.StatusOK, http.StatusNotFound, http.StatusOK}
	for _, code := range codes {
		handler := s.metricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			if code != http.StatusOK {
				w.WriteHeader(code)
			}
			_, _ = w.Write([]byte("body"))
		})
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/labs", http.NoBody))
		require.Equal(t, code, rec.Code)
		require.Equal(t, "body", rec.Body.String())
	}

	assert.InDelta(t, 0, testutil.ToFloat64(s.metrics.activeRequests), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(s.metrics.responses.WithLabelValues("200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(s.metrics.responses.WithLabelValues("404")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(s.metrics.duration))
}

func TestServer_handleMetrics(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	s := &Server{
		metrics: NewMetrics(),
		logger:  logging.NewLeveledLogger(&logs, "server", "warn"),
	}

	rec := httptest.NewRecorder()
	s.handleMetrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "parreduce_")

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		rec := httptest.NewRecorder()
		s.handleMetrics(rec, httptest.NewRequest(method, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.JSONEq(t, `{"error":"method not allowed","status":405}`, rec.Body.String())
	}
	assert.Equal(t, 2, strings.Count(logs.String(), "metrics request rejected"))
}
