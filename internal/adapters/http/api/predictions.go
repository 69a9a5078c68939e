package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/types"
)

// PredictionDependencies stores predictions and explains their points.
type PredictionDependencies interface {
	SubmitPredictions(ctx context.Context, sub service.PredictionSubmission) (service.Receipt, error)
	Breakdown(ctx context.Context, userID string) (leaderboard.Breakdown, error)
}

// PredictionsHandler handles prediction submissions and breakdowns.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// scoreRequest is one predicted or final score. Pointers tell a missing
// value from zero.
type scoreRequest struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

func (s scoreRequest) line() (types.ScoreLine, error) {
	switch {
	case s.Home == nil:
		return types.ScoreLine{}, errors.New("missing home")
	case s.Away == nil:
		return types.ScoreLine{}, errors.New("missing away")
	case *s.Home < 0 || *s.Away < 0:
		return types.ScoreLine{}, errors.New("scores must be non-negative")
	}
	return types.ScoreLine{Home: *s.Home, Away: *s.Away}, nil
}

// predictionRequest mirrors the OpenAPI schema for POST /predictions.
type predictionRequest struct {
	SubmissionID string                  `json:"submission_id"`
	UserID       string                  `json:"user_id"`
	Predictions  map[string]scoreRequest `json:"predictions"`
	Replace      bool                    `json:"replace"`
}

func (p predictionRequest) submission() (service.PredictionSubmission, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return service.PredictionSubmission{}, errors.New("missing user_id")
	}
	if len(p.Predictions) == 0 {
		return service.PredictionSubmission{}, errors.New("missing predictions")
	}
	lines := make(map[string]types.ScoreLine, len(p.Predictions))
	for gameID, s := range p.Predictions {
		line, err := s.line()
		if err != nil {
			return service.PredictionSubmission{}, fmt.Errorf("game %s: %w", gameID, err)
		}
		lines[gameID] = line
	}
	return service.PredictionSubmission{
		SubmissionID: p.SubmissionID,
		UserID:       p.UserID,
		Predictions:  lines,
		Replace:      p.Replace,
	}, nil
}

// HandlePostPredictions handles POST /predictions requests.
func (h *PredictionsHandler) HandlePostPredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_predictions"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := req.submission()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	receipt, err := h.deps.SubmitPredictions(r.Context(), sub)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, receiptStatus(receipt), receipt)
}

// HandleGetBreakdown handles GET /users/{userID}/predictions requests.
func (h *PredictionsHandler) HandleGetBreakdown(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_breakdown"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	userID, ok := pathUser(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	b, err := h.deps.Breakdown(r.Context(), userID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
