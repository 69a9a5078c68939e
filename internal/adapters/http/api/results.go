package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/scoreline/internal/app"
)

// ResultDependencies attaches final scores.
type ResultDependencies interface {
	SubmitResult(ctx context.Context, sub service.ResultSubmission) (service.Receipt, error)
}

// ResultsHandler handles result submissions.
type ResultsHandler struct {
	deps ResultDependencies
}

// NewResultsHandler creates a new results handler.
func NewResultsHandler(deps ResultDependencies) *ResultsHandler {
	return &ResultsHandler{deps: deps}
}

// resultRequest mirrors the OpenAPI schema for POST /results.
type resultRequest struct {
	SubmissionID string `json:"submission_id"`
	GameID       string `json:"game_id"`
	scoreRequest
}

func (q resultRequest) submission() (service.ResultSubmission, error) {
	if strings.TrimSpace(q.GameID) == "" {
		return service.ResultSubmission{}, errors.New("missing game_id")
	}
	line, err := q.line()
	if err != nil {
		return service.ResultSubmission{}, err
	}
	return service.ResultSubmission{
		SubmissionID: q.SubmissionID,
		GameID:       q.GameID,
		Home:         line.Home,
		Away:         line.Away,
	}, nil
}

// HandlePostResult handles POST /results requests.
func (h *ResultsHandler) HandlePostResult(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_result"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub, err := req.submission()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	receipt, err := h.deps.SubmitResult(r.Context(), sub)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, receiptStatus(receipt), receipt)
}
