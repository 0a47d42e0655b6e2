// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ConfigDependencies
	ScoresDependencies
	ReadyDependencies
}

// Standing mirrors one element of the scores listing.
type Standing = types.Standing

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	readyHandler  *ReadyHandler
	statsHandler  *StatsHandler
	configHandler *ConfigHandler
	scoresHandler *ScoresHandler
	logger        logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used by handlers and the logging middleware.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{logger: logger.Get()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.readyHandler = NewReadyHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.configHandler = NewConfigHandler(deps)
	s.scoresHandler = NewScoresHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/config", s.instrument(s.configHandler.HandleGetConfig, "config"))
	mux.HandleFunc("/api/scores", s.instrument(s.scoresHandler.HandleGetScores, "scores"))
	mux.HandleFunc("/api/", s.instrument(http.NotFound, "api"))
}

func (s *Server) instrument(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return LoggingMiddleware(MetricsMiddleware(next, endpoint), s.logger)
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// isRead reports whether r is a GET or HEAD request.
func isRead(r *http.Request) bool {
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the status text as the error message; causes are never
// exposed to clients.
func writeError(w http.ResponseWriter, status int) {
	writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
}
