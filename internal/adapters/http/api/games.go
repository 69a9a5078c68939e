package api

import (
	"context"
	"net/http"

	"github.com/okian/scoreline/internal/domain/types"
)

// GamesDependencies lists games.
type GamesDependencies interface {
	Games(ctx context.Context) ([]types.Game, error)
}

// GamesHandler handles GET /games.
type GamesHandler struct {
	deps GamesDependencies
}

// NewGamesHandler creates a new games handler.
func NewGamesHandler(deps GamesDependencies) *GamesHandler {
	return &GamesHandler{deps: deps}
}

// HandleGetGames returns games ordered by start time.
func (h *GamesHandler) HandleGetGames(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_games"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	games, err := h.deps.Games(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}
