package api

import (
	"context"
	"net/http"
	"strings"
)

// RankDependencies looks up one user's standing.
type RankDependencies interface {
	Rank(ctx context.Context, userID string) (Entry, error)
}

// RankHandler serves GET /rank/{userID}.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank answers with the user's standing, or not_found when the
// user is absent from the published standings.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := pathUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.Rank(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func pathUser(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("userID"))
	return id, id != ""
}
