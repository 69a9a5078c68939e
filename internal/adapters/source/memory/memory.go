// Package memory is a writable in-process snapshot source.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/model"
)

// Store keeps games, prediction documents and profiles in memory. Documents
// keep the order in which users first submitted.
type Store struct {
	mu       sync.RWMutex
	games    []model.Game
	gameIdx  map[string]int
	docs     []model.PredictionDocument
	docIdx   map[string]int
	profiles map[string]model.Profile
}

// New creates a store seeded with snap.
func New(snap model.Snapshot) *Store {
	s := &Store{
		gameIdx: make(map[string]int),
		docIdx:  make(map[string]int),
	}
	for _, g := range snap.Games {
		if _, dup := s.gameIdx[g.ID]; dup {
			continue
		}
		s.gameIdx[g.ID] = len(s.games)
		s.games = append(s.games, g)
	}
	for _, d := range snap.Predictions {
		if i, dup := s.docIdx[d.UserID]; dup {
			maps.Copy(s.docs[i].Predictions, d.Predictions)
			continue
		}
		s.docIdx[d.UserID] = len(s.docs)
		s.docs = append(s.docs, copyDoc(d))
	}
	if snap.Profiles != nil {
		s.profiles = maps.Clone(snap.Profiles)
	}
	return s
}

// Name implements source.Source.
func (s *Store) Name() string { return source.KindMemory }

// Load implements source.Source. The returned snapshot shares nothing with
// the store.
func (s *Store) Load(_ context.Context) (model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := model.Snapshot{
		Games:       make([]model.Game, len(s.games)),
		Predictions: make([]model.PredictionDocument, len(s.docs)),
		TakenAt:     time.Now().UTC(),
	}
	for i, g := range s.games {
		if g.Result != nil {
			r := *g.Result
			g.Result = &r
		}
		snap.Games[i] = g
	}
	for i, d := range s.docs {
		snap.Predictions[i] = copyDoc(d)
	}
	if s.profiles != nil {
		snap.Profiles = maps.Clone(s.profiles)
	}
	return snap, nil
}

// SavePredictions implements source.Writer.
func (s *Store) SavePredictions(_ context.Context, userID string, guesses map[string]model.RawGuess, replace bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for gameID := range guesses {
		if _, ok := s.gameIdx[gameID]; !ok {
			return fmt.Errorf("%w: %s", source.ErrUnknownGame, gameID)
		}
	}

	i, ok := s.docIdx[userID]
	if !ok {
		s.docIdx[userID] = len(s.docs)
		s.docs = append(s.docs, model.PredictionDocument{UserID: userID, Predictions: map[string]model.RawGuess{}})
		i = len(s.docs) - 1
	}
	doc := &s.docs[i]
	if replace {
		doc.Predictions = make(map[string]model.RawGuess, len(guesses))
	}
	for gameID, g := range guesses {
		doc.Predictions[gameID] = maps.Clone(g)
	}
	doc.UpdatedAt = at.UTC()
	return nil
}

// SetResult implements source.Writer.
func (s *Store) SetResult(_ context.Context, gameID string, home, away int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.gameIdx[gameID]
	if !ok {
		return fmt.Errorf("%w: %s", source.ErrUnknownGame, gameID)
	}
	s.games[i].Result = &model.RawResult{Home: home, Away: away}
	return nil
}

func copyDoc(d model.PredictionDocument) model.PredictionDocument {
	out := model.PredictionDocument{UserID: d.UserID, UpdatedAt: d.UpdatedAt, Predictions: make(map[string]model.RawGuess, len(d.Predictions))}
	for id, g := range d.Predictions {
		out.Predictions[id] = maps.Clone(g)
	}
	return out
}
