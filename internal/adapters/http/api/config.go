package api

import (
	"context"
	"net/http"

	"github.com/okian/scoreboard/internal/domain/types"
)

// ConfigDependencies defines the interface for client configuration.
type ConfigDependencies interface {
	ClientConfig(ctx context.Context) types.ClientConfig
}

// ConfigHandler handles client configuration requests.
type ConfigHandler struct {
	deps ConfigDependencies
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(deps ConfigDependencies) *ConfigHandler {
	return &ConfigHandler{deps: deps}
}

// HandleGetConfig handles GET and HEAD /api/config requests. It always answers 200.
func (h *ConfigHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	if !isRead(r) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.ClientConfig(r.Context()))
}
