// Package model contains domain models passed between layers.
package model

import "time"

// Game is a scheduled fixture. Result stays nil until a final score is
// attached by an external collaborator.
type Game struct {
	ID        string
	HomeTeam  string
	AwayTeam  string
	StartTime time.Time
	Result    *RawResult
}

// RawResult holds final scores exactly as read from storage. Values may be
// any of the loosely typed forms accepted by ParseScore.
type RawResult struct {
	Home any
	Away any
}

// Finalized reports whether both result values parse to non-negative integers.
func (g Game) Finalized() bool {
	if g.Result == nil {
		return false
	}
	if _, err := ParseScore(g.Result.Home); err != nil {
		return false
	}
	_, err := ParseScore(g.Result.Away)
	return err == nil
}

// Profile is the display-name record of a user.
type Profile struct {
	UserID   string
	Username string
}
