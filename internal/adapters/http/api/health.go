package api

import (
	"context"
	"net/http"

	"github.com/okian/scoreboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests by exposing the service registry.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// ReadyDependencies defines the interface for readiness checks.
type ReadyDependencies interface {
	Ready(ctx context.Context) error
}

// ReadyHandler reports whether the database answers.
type ReadyHandler struct {
	deps ReadyDependencies
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler(deps ReadyDependencies) *ReadyHandler {
	return &ReadyHandler{deps: deps}
}

// HandleReady handles GET and HEAD /readyz requests.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Ready(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}
