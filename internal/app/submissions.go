package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

// Submission kinds used in metrics and dedupe keys.
const (
	kindPrediction = "prediction"
	kindResult     = "result"
)

// Receipt statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// PredictionSubmission stores a user's guesses. Without Replace the guesses
// are merged into the user's document game by game.
type PredictionSubmission struct {
	SubmissionID string
	UserID       string
	Predictions  map[string]types.ScoreLine
	Replace      bool
	// Reason tags the recompute trigger; empty means a direct submission.
	Reason string
}

// ResultSubmission attaches a final score to a game.
type ResultSubmission struct {
	SubmissionID string
	GameID       string
	Home         int
	Away         int
	Reason       string
}

// Receipt acknowledges a submission.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	Version      uint64 `json:"version,omitempty"`
}

// SubmitPredictions validates and stores sub, then schedules a recompute.
// Scores must be non-negative and every game must exist. A submission id
// already seen returns a duplicate receipt without touching storage.
func (s *Service) SubmitPredictions(ctx context.Context, sub PredictionSubmission) (Receipt, error) {
	w, err := s.writer(kindPrediction)
	if err != nil {
		return Receipt{}, err
	}

	userID := strings.TrimSpace(sub.UserID)
	switch {
	case userID == "":
		return s.reject(kindPrediction, "missing user_id")
	case len(sub.Predictions) == 0:
		return s.reject(kindPrediction, "no predictions")
	}
	for gameID, line := range sub.Predictions {
		if strings.TrimSpace(gameID) == "" {
			return s.reject(kindPrediction, "empty game id")
		}
		if line.Home < 0 || line.Away < 0 {
			return s.reject(kindPrediction, fmt.Sprintf("game %s: scores must be non-negative", gameID))
		}
	}

	id, dup := s.record(ctx, kindPrediction, sub.SubmissionID)
	if dup {
		return Receipt{SubmissionID: id, Status: StatusDuplicate, Duplicate: true}, nil
	}

	games, missing, err := s.lookupGames(ctx, keys(sub.Predictions))
	if err != nil {
		s.deduper.Unrecord(ctx, dedupeKey(kindPrediction, id))
		return Receipt{}, err
	}
	if len(missing) > 0 {
		s.deduper.Unrecord(ctx, dedupeKey(kindPrediction, id))
		return s.reject(kindPrediction, fmt.Sprintf("%v: %s", source.ErrUnknownGame, strings.Join(missing, ", ")))
	}

	guesses := make(map[string]model.RawGuess, len(sub.Predictions))
	for gameID, line := range sub.Predictions {
		g := games[gameID]
		guesses[gameID] = model.RoleKeyedGuess(g.HomeTeam, g.AwayTeam, line.Home, line.Away)
	}
	if err := w.SavePredictions(ctx, userID, guesses, sub.Replace, s.now().UTC()); err != nil {
		s.deduper.Unrecord(ctx, dedupeKey(kindPrediction, id))
		if errors.Is(err, source.ErrUnknownGame) {
			metrics.RecordSubmissionRejected(kindPrediction)
			return Receipt{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		metrics.RecordErrorByComponent("service", "save_predictions")
		return Receipt{}, fmt.Errorf("saving predictions of %s: %w", userID, err)
	}

	s.logger.Debug(ctx, "predictions stored",
		logger.String("submission_id", id),
		logger.String("user_id", userID),
		logger.Int("games", len(guesses)),
		logger.Bool("replace", sub.Replace),
	)
	return s.schedule(ctx, kindPrediction, id, reasonOr(sub.Reason, model.TriggerSubmission))
}

// SubmitResult validates and stores a final score, then schedules a
// recompute.
func (s *Service) SubmitResult(ctx context.Context, sub ResultSubmission) (Receipt, error) {
	w, err := s.writer(kindResult)
	if err != nil {
		return Receipt{}, err
	}

	gameID := strings.TrimSpace(sub.GameID)
	switch {
	case gameID == "":
		return s.reject(kindResult, "missing game_id")
	case sub.Home < 0 || sub.Away < 0:
		return s.reject(kindResult, "scores must be non-negative")
	}

	id, dup := s.record(ctx, kindResult, sub.SubmissionID)
	if dup {
		return Receipt{SubmissionID: id, Status: StatusDuplicate, Duplicate: true}, nil
	}

	if err := w.SetResult(ctx, gameID, sub.Home, sub.Away); err != nil {
		s.deduper.Unrecord(ctx, dedupeKey(kindResult, id))
		if errors.Is(err, source.ErrUnknownGame) {
			metrics.RecordSubmissionRejected(kindResult)
			return Receipt{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		metrics.RecordErrorByComponent("service", "set_result")
		return Receipt{}, fmt.Errorf("setting result of %s: %w", gameID, err)
	}

	s.logger.Debug(ctx, "result stored",
		logger.String("submission_id", id),
		logger.String("game_id", gameID),
		logger.Int("home", sub.Home),
		logger.Int("away", sub.Away),
	)
	return s.schedule(ctx, kindResult, id, reasonOr(sub.Reason, model.TriggerResult))
}

func (s *Service) writer(kind string) (source.Writer, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	w, ok := s.src.(source.Writer)
	if !ok {
		metrics.RecordSubmissionRejected(kind)
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, s.src.Name())
	}
	return w, nil
}

func (s *Service) reject(kind, msg string) (Receipt, error) {
	metrics.RecordSubmissionRejected(kind)
	return Receipt{}, fmt.Errorf("%w: %s", ErrBadRequest, msg)
}

// record marks the submission as seen, generating an id when none was
// given. It reports whether the id was already recorded.
func (s *Service) record(ctx context.Context, kind, id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, dedupeKey(kind, id)) {
		metrics.RecordSubmissionDuplicate(kind)
		return id, true
	}
	return id, false
}

// schedule bumps the write version and queues a recompute for it. When the
// queue is full the submission id is forgotten so a retry is applied again;
// storing the same write twice leaves the same state.
func (s *Service) schedule(ctx context.Context, kind, id, reason string) (Receipt, error) {
	version := s.writes.Add(1)
	t := model.Trigger{ID: id, Reason: reason, Version: version, RequestedAt: s.now()}
	if !s.eventQueue.Enqueue(ctx, t) {
		s.deduper.Unrecord(ctx, dedupeKey(kind, id))
		metrics.RecordErrorByComponent("service", "backpressure")
		return Receipt{}, fmt.Errorf("%w: submission %s stored, recompute not scheduled", ErrBackpressure, id)
	}
	metrics.RecordSubmissionAccepted(kind)
	return Receipt{SubmissionID: id, Status: StatusAccepted, Version: version}, nil
}

// lookupGames resolves ids against the last recompute and reloads the
// source once when some are missing there.
func (s *Service) lookupGames(ctx context.Context, ids []string) (map[string]model.Game, []string, error) {
	var snap model.Snapshot
	if v := s.last.Load(); v != nil {
		snap = v.snapshot
	}
	found, missing := resolve(snap, ids)
	if len(missing) == 0 {
		return found, nil, nil
	}

	fresh, err := s.src.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading games from %s: %w", s.src.Name(), err)
	}
	found, missing = resolve(fresh, ids)
	return found, missing, nil
}

func resolve(snap model.Snapshot, ids []string) (map[string]model.Game, []string) {
	found := make(map[string]model.Game, len(ids))
	var missing []string
	for _, id := range ids {
		if g, ok := snap.Game(id); ok {
			found[id] = g
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

func dedupeKey(kind, id string) string { return kind + ":" + id }

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func keys(m map[string]types.ScoreLine) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
