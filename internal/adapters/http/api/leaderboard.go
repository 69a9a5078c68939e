package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
)

const defaultLimit = 10

var errLimitExceeded = errors.New("limit exceeds the configured maximum")

// LeaderboardDependencies reads the top of the published standings.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// LeaderboardHandler serves GET /leaderboard.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler caps every request at maxLimit rows.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetLeaderboard returns the first limit standings, ten when no limit
// is given. Tied users share a rank and keep their encounter order.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := h.limit(r.URL.Query().Get("limit"))
	switch {
	case errors.Is(err, errLimitExceeded):
		writeError(w, http.StatusBadRequest, "limit_exceeded", WrapKind(op, ErrBadRequest, err))
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *LeaderboardHandler) limit(raw string) (int, error) {
	if raw == "" {
		return min(defaultLimit, h.maxLimit), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > h.maxLimit {
		return 0, errLimitExceeded
	}
	return n, nil
}
