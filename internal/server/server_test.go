package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/workload"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	p := workload.DefaultParams()
	p.Workers = 2
	return New(workload.Default(), p, orchestration.Options{}, Config{
		Timeout:  time.Minute,
		Security: DefaultSecurityConfig(),
	})
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestServer_Labs(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/labs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var labs []LabInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &labs))
	require.Len(t, labs, 7)
	assert.Equal(t, LabInfo{Name: "colmax", Description: workload.ColMax{}.Description(), Policy: "block"}, labs[0])
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","labs":7}`, rec.Body.String())
}

func TestServer_Run(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/run/series?terms=1000&workers=4&policy=strided")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "series", resp.Lab)
	assert.Equal(t, 1000, resp.Items)
	assert.Equal(t, 4, resp.Workers)
	assert.Equal(t, "strided", resp.Policy)
	assert.True(t, resp.Match)
	assert.Equal(t, "match", resp.Verdict)
	assert.NotEmpty(t, resp.RequestID)

	metrics := get(t, s, "/metrics").Body.String()
	assert.Contains(t, metrics, `parreduce_runs_total{lab="series",verdict="match"} 1`)
	assert.Contains(t, metrics, `parreduce_partitions_total{lab="series"}`)
	assert.Contains(t, metrics, `parreduce_responses_total{code="200"}`)
}

func TestServer_RunErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
		substr string
	}{
		{"unknown lab", "/run/nope", http.StatusNotFound, "unknown lab"},
		{"malformed value", "/run/rect?intervals=abc", http.StatusBadRequest, "malformed value"},
		{"unknown parameter", "/run/rect?n=5", http.StatusBadRequest, "unknown parameter"},
		{"too many items", "/run/series?terms=100000000", http.StatusBadRequest, "must not exceed"},
		{"matrix too large", "/run/diagmax?size=100000", http.StatusBadRequest, "size*size"},
		{"too many workers", "/run/series?workers=1000", http.StatusBadRequest, "workers"},
		{"rejected by lab", "/run/rect?intervals=0", http.StatusBadRequest, "intervals"},
	}
	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Contains(t, resp.Error, tt.substr)
		})
	}
}

func TestServer_Routing(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/labs", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/labs", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(t, s, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "{"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.ValidationError{Field: "b", Message: "must exceed a"}, http.StatusBadRequest},
		{apperrors.WorkloadError{Worker: 0, Index: 1, Cause: errors.New("boom")}, http.StatusUnprocessableEntity},
		{apperrors.TimeoutError{Operation: "rect", Limit: time.Second}, http.StatusGatewayTimeout},
		{fmt.Errorf("rect: %w", context.Canceled), http.StatusServiceUnavailable},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestFinite(t *testing.T) {
	assert.Nil(t, finite(0))
	assert.Nil(t, finite(math.NaN()))
	assert.Nil(t, finite(math.Inf(1)))
	require.NotNil(t, finite(0.5))
	assert.Equal(t, 0.5, *finite(0.5))
}

func TestProduct(t *testing.T) {
	assert.Equal(t, 12, product(3, 4))
	assert.Equal(t, 0, product(0, 4))
	assert.Equal(t, math.MaxInt, product(math.MaxInt/2, 3))
}

func TestServer_StartStops(t *testing.T) {
	p := workload.DefaultParams()
	s := New(workload.Default(), p, orchestration.Options{}, Config{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
