package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/dbguard/internal/core/resilience"
)

// Server provides HTTP endpoints for health monitoring and policy administration.
type Server struct {
	monitor *Monitor
	exec    *resilience.Executor
	mux     *http.ServeMux
	server  *http.Server
}

// NewServer creates a new health server.
func NewServer(monitor *Monitor, exec *resilience.Executor, port int) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		exec:    exec,
		mux:     mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	mux.HandleFunc("GET /admin/retry-policy", s.handleGetPolicy)
	mux.HandleFunc("PUT /admin/retry-policy", s.handlePutPolicy)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Mount registers additional routes on the server.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.mux.Handle(pattern, h)
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.monitor.CheckHealth(r.Context())

	status := http.StatusOK
	if report.SystemStatus == StatusCritical {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"status": string(report.SystemStatus)})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitor.CheckHealth(r.Context()))
}

// policyPayload is the wire form of a retry policy; durations use
// time.ParseDuration syntax.
type policyPayload struct {
	MaxRetries        int      `json:"max_retries"`
	BaseDelay         string   `json:"base_delay"`
	MaxDelay          string   `json:"max_delay"`
	BackoffMultiplier float64  `json:"backoff_multiplier"`
	RetryableCodes    []string `json:"retryable_codes"`
	OperationTimeout  string   `json:"operation_timeout,omitempty"`
	HealthTimeout     string   `json:"health_timeout,omitempty"`
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsPayload(s.exec.Stats()))
}

func (s *Server) handlePutPolicy(w http.ResponseWriter, r *http.Request) {
	var in policyPayload
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid policy: %v", err))
		return
	}

	base, err := time.ParseDuration(in.BaseDelay)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid base_delay: %v", err))
		return
	}
	maxDelay, err := time.ParseDuration(in.MaxDelay)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid max_delay: %v", err))
		return
	}

	p := resilience.Policy{
		MaxRetries:        in.MaxRetries,
		BaseDelay:         base,
		MaxDelay:          maxDelay,
		BackoffMultiplier: in.BackoffMultiplier,
		RetryableCodes:    in.RetryableCodes,
	}
	if err := s.exec.SetPolicy(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statsPayload(s.exec.Stats()))
}

func statsPayload(st resilience.Stats) policyPayload {
	return policyPayload{
		MaxRetries:        st.Policy.MaxRetries,
		BaseDelay:         st.Policy.BaseDelay.String(),
		MaxDelay:          st.Policy.MaxDelay.String(),
		BackoffMultiplier: st.Policy.BackoffMultiplier,
		RetryableCodes:    st.Policy.RetryableCodes,
		OperationTimeout:  st.OperationTimeout.String(),
		HealthTimeout:     st.HealthTimeout.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
