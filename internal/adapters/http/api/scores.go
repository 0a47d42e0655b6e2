package api

import (
	"context"
	"net/http"

	"github.com/okian/scoreboard/pkg/logger"
)

// ScoresDependencies defines the interface for the scores listing.
type ScoresDependencies interface {
	Scores(ctx context.Context) ([]Standing, error)
}

// ScoresHandler handles scores requests.
type ScoresHandler struct {
	deps   ScoresDependencies
	logger logger.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies, l logger.Logger) *ScoresHandler {
	if l == nil {
		l = logger.Get()
	}
	return &ScoresHandler{deps: deps, logger: l}
}

// HandleGetScores handles GET and HEAD /api/scores requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	if !isRead(r) {
		http.NotFound(w, r)
		return
	}
	standings, err := h.deps.Scores(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "error fetching scores", logger.Error(Wrap(op, err)))
		writeError(w, http.StatusInternalServerError)
		return
	}
	if standings == nil {
		standings = []Standing{}
	}
	writeJSON(w, http.StatusOK, standings)
}
