// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/survcurve/internal/adapters/http/swagger"
	service "github.com/okian/survcurve/internal/app"
	"github.com/okian/survcurve/pkg/logger"
	"github.com/okian/survcurve/pkg/metrics"
)

// defaultMaxBodyBytes bounds POST bodies.
const defaultMaxBodyBytes = 64 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Evaluate(ctx context.Context, req service.Request) (*service.Result, error)
}

// Server wires HTTP routes for the curves API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	curvesHandler *CurvesHandler

	metrics *metrics.Manager
	logger  logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records HTTP metrics into m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.curvesHandler.maxBody = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		curvesHandler: NewCurvesHandler(deps),
		metrics:       metrics.Global(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.curvesHandler.logger = s.logger.Named("api")
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mw := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(s.metrics, h, endpoint)
	}
	mux.HandleFunc("GET /healthz", mw(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", MetricsHandler())
	mux.HandleFunc("GET /stats", mw(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /v1/curves/{kind}", mw(s.curvesHandler.HandleCurves, "curves"))
	swagger.Register(mux)
}

// Handler returns a mux with every route registered, wrapped in the request
// ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return RequestIDMiddleware(mux)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
