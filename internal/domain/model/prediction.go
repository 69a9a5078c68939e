package model

import "time"

// Role keys of the canonical (newer) prediction storage shape.
const (
	KeyHomeScore = "homeScore"
	KeyAwayScore = "awayScore"
	KeyHomeTeam  = "homeTeam"
	KeyAwayTeam  = "awayTeam"
)

// RawGuess is one stored prediction record for a game. Older records are
// keyed by team name, newer ones by KeyHomeScore/KeyAwayScore.
type RawGuess map[string]any

// PredictionDocument holds every prediction a single user has submitted,
// keyed by game id.
type PredictionDocument struct {
	UserID      string
	Predictions map[string]RawGuess
	UpdatedAt   time.Time
}

// RoleKeyedGuess builds a record in the canonical storage shape.
func RoleKeyedGuess(homeTeam, awayTeam string, home, away int) RawGuess {
	return RawGuess{
		KeyHomeTeam:  homeTeam,
		KeyAwayTeam:  awayTeam,
		KeyHomeScore: home,
		KeyAwayScore: away,
	}
}
