// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/types"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	RankDependencies
	GamesDependencies
	PredictionDependencies
	ResultDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Standing

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	gamesHandler       *GamesHandler
	predictionsHandler *PredictionsHandler
	resultsHandler     *ResultsHandler
}

// NewServer creates a new API server with all handlers. A maxLimit below one
// uses the default cap for GET /leaderboard.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit < 1 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		gamesHandler:       NewGamesHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		resultsHandler:     NewResultsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/stats", instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/leaderboard", instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/{userID}", instrument("rank", s.rankHandler.HandleGetRank))
	mux.HandleFunc("/games", instrument("games", s.gamesHandler.HandleGetGames))
	mux.HandleFunc("/users/{userID}/predictions", instrument("breakdown", s.predictionsHandler.HandleGetBreakdown))
	mux.HandleFunc("/predictions", instrument("predictions", s.predictionsHandler.HandlePostPredictions))
	mux.HandleFunc("/results", instrument("results", s.resultsHandler.HandlePostResult))
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

// errorCodeHeader repeats the error code of a failed response.
const errorCodeHeader = "X-Error-Code"

func writeError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set(errorCodeHeader, code)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service sentinels to a status and code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	writeError(w, status, code, Wrap(op, err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrReadOnly):
		return http.StatusConflict, "read_only_source"
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_ready"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// receiptStatus is 202 for accepted writes and 200 for duplicates, which
// change nothing.
func receiptStatus(r service.Receipt) int {
	if r.Duplicate {
		return http.StatusOK
	}
	return http.StatusAccepted
}
