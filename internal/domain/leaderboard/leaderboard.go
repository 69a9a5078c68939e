// Package leaderboard joins prediction documents against finalized results
// and ranks users by total points.
//
// An Aggregator holds no state between calls: every Rank recomputes the
// standings from the documents it is given, so repeated calls on the same
// input return the same list.
package leaderboard

import (
	"sort"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/prediction"
	"github.com/okian/scoreline/internal/domain/results"
	"github.com/okian/scoreline/internal/domain/scoring"
	"github.com/okian/scoreline/internal/domain/types"
)

// Skip reasons reported in Stats.Skipped.
const (
	SkipUnknownGame   = "unknown_game"
	SkipRejectedGuess = "rejected_guess"
)

// Stats describes one ranking run.
type Stats struct {
	Users            int            `json:"users"`
	Scored           int            `json:"scored"`
	Skipped          map[string]int `json:"skipped"`
	DroppedNoProfile int            `json:"dropped_no_profile"`
	FinalizedGames   int            `json:"finalized_games"`
}

// Result is the output of Rank.
type Result struct {
	Standings []types.Standing
	Stats     Stats
}

// Aggregator ranks users under a scoring policy and a profile policy.
type Aggregator struct {
	policy   scoring.Policy
	profiles ProfilePolicy
}

// New creates an Aggregator using the default policies unless overridden.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		policy:   scoring.DefaultPolicy,
		profiles: DefaultProfilePolicy,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Policy returns the scoring policy in use.
func (a *Aggregator) Policy() scoring.Policy { return a.policy }

// ProfilePolicy returns the profile policy in use.
func (a *Aggregator) ProfilePolicy() ProfilePolicy { return a.profiles }

type tally struct {
	userID string
	points int
}

// Rank scores every document against idx and returns the standings sorted
// by points, highest first. Ties keep the order in which users first appear
// in docs. A user with a document but nothing scorable is listed with zero
// points. Several documents for the same user are summed.
//
// profiles may be nil, in which case raw user ids are used as names.
func (a *Aggregator) Rank(idx *results.Index, docs []model.PredictionDocument, profiles map[string]model.Profile) Result {
	stats := Stats{
		Skipped:        map[string]int{SkipUnknownGame: 0, SkipRejectedGuess: 0},
		FinalizedGames: idx.Len(),
	}

	order := make([]*tally, 0, len(docs))
	byUser := make(map[string]*tally, len(docs))
	for _, doc := range docs {
		t, ok := byUser[doc.UserID]
		if !ok {
			t = &tally{userID: doc.UserID}
			byUser[doc.UserID] = t
			order = append(order, t)
		}
		for gameID, raw := range doc.Predictions {
			final, ok := idx.Lookup(gameID)
			if !ok {
				stats.Skipped[SkipUnknownGame]++
				continue
			}
			pts, ok := a.score(final, raw)
			if !ok {
				stats.Skipped[SkipRejectedGuess]++
				continue
			}
			stats.Scored++
			t.points += pts
		}
	}

	standings := make([]types.Standing, 0, len(order))
	for _, t := range order {
		name, ok := a.profiles.displayName(t.userID, profiles)
		if !ok {
			stats.DroppedNoProfile++
			continue
		}
		standings = append(standings, types.Standing{UserID: t.userID, Name: name, Points: t.points})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Points > standings[j].Points
	})
	assignRanks(standings)

	stats.Users = len(standings)
	return Result{Standings: standings, Stats: stats}
}

func (a *Aggregator) score(final results.Final, raw model.RawGuess) (int, bool) {
	g, err := prediction.Normalize(raw, final.HomeTeam, final.AwayTeam)
	if err != nil {
		return 0, false
	}
	return a.policy.Points(g.Home, g.Away, final.HomeScore, final.AwayScore), true
}

// assignRanks sets dense ranks on a slice already sorted by points.
func assignRanks(standings []types.Standing) {
	rank := 0
	for i := range standings {
		if i == 0 || standings[i].Points != standings[i-1].Points {
			rank++
		}
		standings[i].Rank = rank
	}
}
