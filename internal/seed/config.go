// Package seed drives a running scoreline service: it submits generated
// predictions (and optionally results) over HTTP, waits for the standings
// to catch up and checks them against points computed locally.
package seed

import (
	"time"

	"github.com/okian/scoreline/internal/domain/types"
)

// Config holds the settings of one seed run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Users       int           // Number of users to generate
	Workers     int           // Concurrent HTTP workers
	Timeout     time.Duration // HTTP request timeout
	SettleAfter time.Duration // How long to wait for the standings to catch up
	TopN        int           // Leaderboard entries to fetch
	Results     bool          // Post random results for unfinalized games
	Seed        uint64        // Random seed; zero picks one from the clock
	OutputFile  string        // Where the generated submissions are written
	Verbose     bool
}

// Submission is one generated POST /predictions body.
type Submission struct {
	SubmissionID string                     `json:"submission_id"`
	UserID       string                     `json:"user_id"`
	Predictions  map[string]types.ScoreLine `json:"predictions"`
}

// ResultBody is one generated POST /results body.
type ResultBody struct {
	SubmissionID string `json:"submission_id"`
	GameID       string `json:"game_id"`
	Home         int    `json:"home"`
	Away         int    `json:"away"`
}

// Receipt is the acknowledgement of a submission.
type Receipt struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	Version      uint64 `json:"version"`
}

// ServiceStats is the subset of /stats the run depends on.
type ServiceStats struct {
	Writable         bool   `json:"writable"`
	ScoringPolicy    string `json:"scoringPolicy"`
	ProfilePolicy    string `json:"profilePolicy"`
	ProfilesLoaded   bool   `json:"profilesLoaded"`
	WriteVersion     uint64 `json:"writeVersion"`
	StandingsVersion uint64 `json:"standingsVersion"`
}

// Stats holds run statistics.
type Stats struct {
	UsersGenerated     int
	Submitted          int
	Accepted           int
	Duplicate          int
	Failed             int
	ResultsPosted      int
	RanksChecked       int
	Mismatches         int
	LeaderboardEntries int
	StartTime          time.Time
	Duration           time.Duration
}

// Game and Standing are the API read shapes.
type (
	Game     = types.Game
	Standing = types.Standing
)
