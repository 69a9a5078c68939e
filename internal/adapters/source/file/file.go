// Package file reads snapshots from a YAML or JSON document on disk.
//
// Layout:
//
//	games:
//	  - {id: g1, homeTeam: CAN, awayTeam: USA, startTime: "2025-05-09T17:20:00Z", result: {home: 3, away: 1}}
//	predictions:
//	  alice:
//	    predictions:
//	      g1: {homeScore: 2, awayScore: 1}
//	profiles:
//	  alice: {username: Alice}
//
// Users under predictions keep the order in which they appear in the file.
// A missing profiles key means no profile lookup.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/model"
)

type document struct {
	Games       []map[string]any          `yaml:"games"`
	Predictions yaml.Node                 `yaml:"predictions"`
	Profiles    map[string]map[string]any `yaml:"profiles"`
}

// Source re-reads its file on every Load.
type Source struct {
	path string
}

// New creates a file source for path.
func New(path string) *Source {
	return &Source{path: path}
}

// Name implements source.Source.
func (s *Source) Name() string { return source.KindFile }

// Load implements source.Source.
func (s *Source) Load(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	snap, err := Decode(bytes.NewReader(b))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return snap, nil
}

// Decode parses a snapshot document. JSON is accepted as a subset of YAML.
func Decode(r io.Reader) (model.Snapshot, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return model.Snapshot{}, fmt.Errorf("%w: %v", source.ErrInvalidRecord, err)
	}

	snap := model.Snapshot{TakenAt: time.Now().UTC()}
	for i, rec := range doc.Games {
		g, err := source.DecodeGame("", rec)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("game #%d: %w", i, err)
		}
		snap.Games = append(snap.Games, g)
	}

	docs, err := decodePredictions(&doc.Predictions)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.Predictions = docs

	if doc.Profiles != nil {
		snap.Profiles = make(map[string]model.Profile, len(doc.Profiles))
		for id, rec := range doc.Profiles {
			snap.Profiles[id] = source.DecodeProfile(id, rec)
		}
	}
	return snap, nil
}

// decodePredictions walks the mapping node so user order survives. A user
// id may appear once, as in any YAML mapping.
func decodePredictions(n *yaml.Node) ([]model.PredictionDocument, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: predictions must be a mapping of user ids", source.ErrInvalidRecord)
	}
	docs := make([]model.PredictionDocument, 0, len(n.Content)/2)
	seen := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		userID := key.Value
		if line, dup := seen[userID]; dup {
			return nil, fmt.Errorf("%w: user %s listed again on line %d (first on line %d)",
				source.ErrInvalidRecord, userID, key.Line, line)
		}
		seen[userID] = key.Line
		var rec map[string]any
		if err := n.Content[i+1].Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: predictions of %s: %v", source.ErrInvalidRecord, userID, err)
		}
		docs = append(docs, source.DecodeDocument(userID, rec))
	}
	return docs, nil
}
