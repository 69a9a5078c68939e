package model

import (
	"sort"
	"time"
)

// Snapshot is an immutable view of everything one aggregation run reads.
// Predictions are kept in encounter order; Profiles is nil when no
// display-name lookup is available.
type Snapshot struct {
	Games       []Game
	Predictions []PredictionDocument
	Profiles    map[string]Profile
	TakenAt     time.Time
}

// Document returns the prediction document of userID, if any.
func (s Snapshot) Document(userID string) (PredictionDocument, bool) {
	for _, doc := range s.Predictions {
		if doc.UserID == userID {
			return doc, true
		}
	}
	return PredictionDocument{}, false
}

// Game returns the game with the given id, if any.
func (s Snapshot) Game(id string) (Game, bool) {
	for _, g := range s.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// GamesByStartTime returns a copy of the games ordered by start time, then id.
func (s Snapshot) GamesByStartTime() []Game {
	out := make([]Game, len(s.Games))
	copy(out, s.Games)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
