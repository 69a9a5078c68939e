package leaderboard

import (
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/prediction"
	"github.com/okian/scoreline/internal/domain/results"
	"github.com/okian/scoreline/internal/domain/types"
)

// Row is one scored prediction of a user.
type Row struct {
	GameID    string          `json:"game_id"`
	HomeTeam  string          `json:"home_team"`
	AwayTeam  string          `json:"away_team"`
	Predicted types.ScoreLine `json:"predicted"`
	Actual    types.ScoreLine `json:"actual"`
	Points    int             `json:"points"`
}

// Breakdown is the per-game view of one user's predictions.
type Breakdown struct {
	UserID  string   `json:"user_id"`
	Rows    []Row    `json:"rows"`
	Pending []string `json:"pending"`
	Total   int      `json:"total"`
}

// Breakdown lists doc's predictions game by game, following the order of
// games. Predictions on finalized games become rows; valid predictions on
// games without a final result are listed as pending. Rejected guesses and
// predictions for games not in games are left out entirely.
func (a *Aggregator) Breakdown(idx *results.Index, games []model.Game, doc model.PredictionDocument) Breakdown {
	out := Breakdown{UserID: doc.UserID, Rows: []Row{}, Pending: []string{}}
	seen := make(map[string]struct{}, len(games))
	for _, g := range games {
		if _, dup := seen[g.ID]; dup {
			continue
		}
		seen[g.ID] = struct{}{}

		raw, ok := doc.Predictions[g.ID]
		if !ok {
			continue
		}
		final, finalized := idx.Lookup(g.ID)
		if !finalized {
			if _, err := prediction.Normalize(raw, g.HomeTeam, g.AwayTeam); err == nil {
				out.Pending = append(out.Pending, g.ID)
			}
			continue
		}
		guess, err := prediction.Normalize(raw, final.HomeTeam, final.AwayTeam)
		if err != nil {
			continue
		}
		pts := a.policy.Points(guess.Home, guess.Away, final.HomeScore, final.AwayScore)
		out.Rows = append(out.Rows, Row{
			GameID:    g.ID,
			HomeTeam:  final.HomeTeam,
			AwayTeam:  final.AwayTeam,
			Predicted: types.ScoreLine{Home: guess.Home, Away: guess.Away},
			Actual:    types.ScoreLine{Home: final.HomeScore, Away: final.AwayScore},
			Points:    pts,
		})
		out.Total += pts
	}
	return out
}
