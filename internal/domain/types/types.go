// Package types contains common types used across the application
package types

import "time"

// Standing is one row of a ranked leaderboard. Users with equal points share
// a rank.
type Standing struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

// ScoreLine is a home/away pair of goals.
type ScoreLine struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Game is the read shape of a scheduled game. StartTime is nil when the
// stored start time could not be parsed.
type Game struct {
	ID        string     `json:"id"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Finalized bool       `json:"finalized"`
	Result    *ScoreLine `json:"result,omitempty"`
}
