// Package prediction turns stored prediction records into validated score
// pairs.
//
// Two storage shapes exist. The canonical one is keyed by role
// ({homeScore, awayScore}); older records are keyed by the literal team
// names. Normalize hides the difference so nothing downstream branches on it.
package prediction

import (
	"errors"
	"fmt"

	"github.com/okian/scoreline/internal/domain/model"
)

// Shape identifies the storage layout of a raw guess.
type Shape int

// Known shapes.
const (
	ShapeUnknown Shape = iota
	ShapeRoleKeyed
	ShapeTeamKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeRoleKeyed:
		return "role-keyed"
	case ShapeTeamKeyed:
		return "team-keyed"
	default:
		return "unknown"
	}
}

// Guess is a validated predicted score line.
type Guess struct {
	Home  int
	Away  int
	Shape Shape
}

// Detect classifies raw. Role keys win whenever either one is present.
func Detect(raw model.RawGuess, homeTeam, awayTeam string) Shape {
	if raw == nil {
		return ShapeUnknown
	}
	if has(raw, model.KeyHomeScore) || has(raw, model.KeyAwayScore) {
		return ShapeRoleKeyed
	}
	if (homeTeam != "" && has(raw, homeTeam)) || (awayTeam != "" && has(raw, awayTeam)) {
		return ShapeTeamKeyed
	}
	return ShapeUnknown
}

// Normalize extracts the predicted pair for a game between homeTeam and
// awayTeam. The error wraps ErrRejected when the record cannot be scored.
func Normalize(raw model.RawGuess, homeTeam, awayTeam string) (Guess, error) {
	shape := Detect(raw, homeTeam, awayTeam)

	var homeKey, awayKey string
	switch shape {
	case ShapeRoleKeyed:
		homeKey, awayKey = model.KeyHomeScore, model.KeyAwayScore
	case ShapeTeamKeyed:
		homeKey, awayKey = homeTeam, awayTeam
	default:
		return Guess{}, ErrMissingScore
	}

	home, err := score(raw, homeKey)
	if err != nil {
		return Guess{}, err
	}
	away, err := score(raw, awayKey)
	if err != nil {
		return Guess{}, err
	}
	return Guess{Home: home, Away: away, Shape: shape}, nil
}

func score(raw model.RawGuess, key string) (int, error) {
	v, ok := raw[key]
	if !ok || key == "" {
		return 0, fmt.Errorf("%w: %q", ErrMissingScore, key)
	}
	n, err := model.ParseScore(v)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, model.ErrMissingValue):
		return 0, fmt.Errorf("%w: %q", ErrMissingScore, key)
	default:
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidScore, key, err)
	}
}

func has(raw model.RawGuess, key string) bool {
	_, ok := raw[key]
	return ok
}
