// Package server exposes the labs over a read-only HTTP API.
//
// Routes:
//
//	GET /labs          registered labs with their default policy
//	GET /run/{lab}     runs one lab; query parameters override the defaults
//	GET /health        liveness probe
//	GET /metrics       Prometheus exposition of lab and HTTP metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	apperrors "github.com/agbru/parreduce/internal/errors"
	"github.com/agbru/parreduce/internal/logging"
	"github.com/agbru/parreduce/internal/metrics"
	"github.com/agbru/parreduce/internal/orchestration"
	"github.com/agbru/parreduce/internal/workload"
)

// ShutdownTimeout bounds the graceful shutdown of Start.
const ShutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	// Addr is the listen address, such as ":8080".
	Addr string
	// Timeout bounds a single /run request.
	Timeout  time.Duration
	Security SecurityConfig
}

// Server serves lab runs over HTTP.
type Server struct {
	router     *mux.Router
	registry   *workload.Registry
	defaults   workload.Params
	opts       orchestration.Options
	metrics    *Metrics
	logger     logging.Logger
	security   SecurityConfig
	timeout    time.Duration
	addr       string
	httpServer *http.Server
}

// New builds a server running labs from registry. defaults are the
// parameters of a run before query overrides. When opts.Metrics is nil a
// fresh registry is created so /metrics always has content.
func New(registry *workload.Registry, defaults workload.Params, opts orchestration.Options, cfg Config) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop
	}
	s := &Server{
		router:   mux.NewRouter(),
		registry: registry,
		defaults: defaults,
		opts:     opts,
		metrics:  NewMetricsFor(opts.Metrics),
		logger:   logger,
		security: cfg.Security,
		timeout:  cfg.Timeout,
		addr:     cfg.Addr,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/labs", s.wrap(s.handleLabs)).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/run/{lab}", s.wrap(s.handleRun)).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/health", s.wrap(s.handleHealth)).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/metrics", s.wrap(s.handleMetrics))
	s.router.NotFoundHandler = s.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = s.wrap(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (s *Server) wrap(h http.HandlerFunc) http.HandlerFunc {
	return SecurityMiddleware(s.security, s.metricsMiddleware(h))
}

// ServeHTTP dispatches to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", logging.String("addr", s.addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.WrapError(err, "listening on %s", s.addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.WrapError(err, "shutting down server")
	}
	return nil
}

// LabInfo describes a registered lab.
type LabInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Policy      string `json:"policy"`
}

func (s *Server) handleLabs(w http.ResponseWriter, _ *http.Request) {
	labs := s.registry.List()
	infos := make([]LabInfo, len(labs))
	for i, l := range labs {
		infos[i] = LabInfo{Name: l.Name(), Description: l.Description(), Policy: l.DefaultPolicy().String()}
	}
	sendJSON(w, http.StatusOK, infos)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{"status": "ok", "labs": len(s.registry.Names())})
}

// RunResponse is the body of a successful /run request.
type RunResponse struct {
	RequestID         string   `json:"request_id"`
	Lab               string   `json:"lab"`
	Items             int      `json:"items"`
	Workers           int      `json:"workers"`
	Tasks             int      `json:"tasks"`
	Policy            string   `json:"policy"`
	Sequential        string   `json:"sequential"`
	Parallel          string   `json:"parallel"`
	SequentialSeconds float64  `json:"sequential_seconds"`
	ParallelSeconds   float64  `json:"parallel_seconds"`
	Speedup           float64  `json:"speedup"`
	Verdict           string   `json:"verdict"`
	Match             bool     `json:"match"`
	Delta             *float64 `json:"delta,omitempty"`
	Epsilon           *float64 `json:"epsilon,omitempty"`
	Details           []string `json:"details,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["lab"]
	lab, err := s.registry.Get(name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	p, err := s.parseParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	opts := s.opts
	if z, ok := opts.Logger.(*logging.ZerologAdapter); ok {
		opts.Logger = z.With(logging.String("request_id", requestID))
	}
	res := orchestration.RunLab(ctx, 0, lab, p, opts, nil)
	if res.Err != nil {
		if errors.Is(res.Err, context.DeadlineExceeded) {
			res.Err = apperrors.TimeoutError{Operation: lab.Name(), Limit: s.timeout}
		}
		writeError(w, statusFor(res.Err), res.Err.Error())
		return
	}

	o := res.Outcome
	sendJSON(w, http.StatusOK, RunResponse{
		RequestID:         requestID,
		Lab:               o.Lab,
		Items:             o.Items,
		Workers:           o.Workers,
		Tasks:             o.Tasks,
		Policy:            o.Policy.String(),
		Sequential:        o.Sequential,
		Parallel:          o.Parallel,
		SequentialSeconds: o.SequentialTime.Seconds(),
		ParallelSeconds:   o.ParallelTime.Seconds(),
		Speedup:           o.Speedup(),
		Verdict:           o.Verdict.String(),
		Match:             o.Match(),
		Delta:             finite(o.Delta),
		Epsilon:           finite(o.Epsilon),
		Details:           o.Details,
	})
}

// statusFor maps a lab error to an HTTP status.
func statusFor(err error) int {
	switch apperrors.ExitCodeFor(err) {
	case apperrors.ExitErrorConfig:
		return http.StatusBadRequest
	case apperrors.ExitErrorWorkload:
		return http.StatusUnprocessableEntity
	case apperrors.ExitErrorTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ExitErrorCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// finite returns nil for zero and non-finite values, which JSON cannot carry.
func finite(v float64) *float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type paramSetter func(p *workload.Params, v string) error

func intParam(field func(*workload.Params) *int) paramSetter {
	return func(p *workload.Params, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(p) = n
		return nil
	}
}

func floatParam(field func(*workload.Params) *float64) paramSetter {
	return func(p *workload.Params, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

var paramSetters = map[string]paramSetter{
	"workers": intParam(func(p *workload.Params) *int { return &p.Workers }),
	"repeat":  intParam(func(p *workload.Params) *int { return &p.Repeat }),
	"policy": func(p *workload.Params, v string) error {
		if strings.EqualFold(v, "default") {
			v = ""
		}
		p.Policy = v
		return nil
	},
	"seed": func(p *workload.Params, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return err
		}
		p.Seed = n
		return nil
	},
	"epsilon":   floatParam(func(p *workload.Params) *float64 { return &p.Epsilon }),
	"rows":      intParam(func(p *workload.Params) *int { return &p.Rows }),
	"cols":      intParam(func(p *workload.Params) *int { return &p.Cols }),
	"size":      intParam(func(p *workload.Params) *int { return &p.Size }),
	"func":      func(p *workload.Params, v string) error { p.Func = v; return nil },
	"a":         floatParam(func(p *workload.Params) *float64 { return &p.A }),
	"b":         floatParam(func(p *workload.Params) *float64 { return &p.B }),
	"intervals": intParam(func(p *workload.Params) *int { return &p.Intervals }),
	"lower":     floatParam(func(p *workload.Params) *float64 { return &p.Lower }),
	"precision": floatParam(func(p *workload.Params) *float64 { return &p.Precision }),
	"strings":   intParam(func(p *workload.Params) *int { return &p.Strings }),
	"length":    intParam(func(p *workload.Params) *int { return &p.Length }),
	"vertices":  intParam(func(p *workload.Params) *int { return &p.Vertices }),
	"terms":     intParam(func(p *workload.Params) *int { return &p.Terms }),
}

// parseParams applies the query parameters of r to the server defaults and
// enforces the request limits. Lab-specific validation is left to the lab.
func (s *Server) parseParams(r *http.Request) (workload.Params, error) {
	p := s.defaults
	p.Verbose = false
	for key, values := range r.URL.Query() {
		set, ok := paramSetters[strings.ToLower(key)]
		if !ok {
			return p, apperrors.ValidationError{Field: key, Message: "unknown parameter"}
		}
		if len(values) == 0 {
			continue
		}
		if err := set(&p, values[len(values)-1]); err != nil {
			return p, apperrors.ValidationError{Field: key, Message: "malformed value " + strconv.Quote(values[len(values)-1])}
		}
	}
	return p, s.checkLimits(p)
}

func (s *Server) checkLimits(p workload.Params) error {
	if s.security.MaxWorkers > 0 && p.Workers > s.security.MaxWorkers {
		return apperrors.ValidationError{Field: "workers", Message: "must not exceed " + strconv.Itoa(s.security.MaxWorkers)}
	}
	if s.security.MaxItems <= 0 {
		return nil
	}
	sizes := []struct {
		field string
		n     int
	}{
		{"rows*cols", product(p.Rows, p.Cols)},
		{"size*size", product(p.Size, p.Size)},
		{"intervals", p.Intervals},
		{"strings*length", product(p.Strings, p.Length)},
		{"vertices", p.Vertices},
		{"terms", p.Terms},
	}
	for _, sz := range sizes {
		if sz.n > s.security.MaxItems {
			return apperrors.ValidationError{Field: sz.field, Message: "must not exceed " + strconv.Itoa(s.security.MaxItems)}
		}
	}
	return nil
}

// product multiplies non-negative sizes, saturating at math.MaxInt.
func product(a, b int) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, ErrorResponse{Error: msg, Status: status})
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
