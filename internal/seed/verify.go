package seed

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/scoring"
)

// Expected computes the points every submission should earn against the
// finalized games.
func Expected(games []Game, subs []Submission, policy scoring.Policy) map[string]int {
	finals := make(map[string]Game, len(games))
	for _, g := range games {
		if g.Finalized && g.Result != nil {
			finals[g.ID] = g
		}
	}

	out := make(map[string]int, len(subs))
	for _, s := range subs {
		total := 0
		for gameID, p := range s.Predictions {
			g, ok := finals[gameID]
			if !ok {
				continue
			}
			total += policy.Points(p.Home, p.Away, g.Result.Home, g.Result.Away)
		}
		out[s.UserID] = total
	}
	return out
}

// dropsUnprofiled reports whether seeded users, which never have a profile,
// are left out of the standings. That takes the drop policy and a profile
// lookup; without a lookup every user is ranked under their id.
func (s ServiceStats) dropsUnprofiled() bool {
	return s.ProfilePolicy == string(leaderboard.ProfileDrop) && s.ProfilesLoaded
}

// CheckRank compares a /rank answer with the expected points. dropped says
// seeded users must be absent.
func CheckRank(want int, dropped bool, got Standing, err error) error {
	var se *StatusError
	notFound := errors.As(err, &se) && se.Code == http.StatusNotFound
	switch {
	case dropped && notFound:
		return nil
	case dropped && err == nil:
		return fmt.Errorf("user %s ranked although it has no profile", got.UserID)
	case err != nil:
		return err
	case got.Points != want:
		return fmt.Errorf("user %s has %d points, want %d", got.UserID, got.Points, want)
	}
	return nil
}

// CheckLeaderboard verifies ordering and dense ranks.
func CheckLeaderboard(board []Standing) error {
	for i := 1; i < len(board); i++ {
		prev, cur := board[i-1], board[i]
		if cur.Points > prev.Points {
			return fmt.Errorf("entry %d has more points than entry %d", i, i-1)
		}
		wantRank := prev.Rank
		if cur.Points < prev.Points {
			wantRank++
		}
		if cur.Rank != wantRank {
			return fmt.Errorf("entry %d has rank %d, want %d", i, cur.Rank, wantRank)
		}
	}
	return nil
}
