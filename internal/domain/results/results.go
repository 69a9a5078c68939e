// Package results indexes finalized game results by game id.
package results

import "github.com/okian/scoreline/internal/domain/model"

// Final is the validated result of a finalized game.
type Final struct {
	GameID    string
	HomeTeam  string
	AwayTeam  string
	HomeScore int
	AwayScore int
}

// Index maps game ids to finalized results. The zero value and nil are
// empty indexes.
type Index struct {
	byID map[string]Final
	ids  []string
}

// Build indexes every finalized game. Games without a result, or whose
// result values are not non-negative integers, are left out. A repeated id
// keeps its first finalized occurrence.
func Build(games []model.Game) *Index {
	idx := &Index{byID: make(map[string]Final, len(games))}
	for _, g := range games {
		if g.Result == nil {
			continue
		}
		if _, dup := idx.byID[g.ID]; dup {
			continue
		}
		home, err := model.ParseScore(g.Result.Home)
		if err != nil {
			continue
		}
		away, err := model.ParseScore(g.Result.Away)
		if err != nil {
			continue
		}
		idx.byID[g.ID] = Final{
			GameID:    g.ID,
			HomeTeam:  g.HomeTeam,
			AwayTeam:  g.AwayTeam,
			HomeScore: home,
			AwayScore: away,
		}
		idx.ids = append(idx.ids, g.ID)
	}
	return idx
}

// Lookup returns the finalized result of gameID.
func (i *Index) Lookup(gameID string) (Final, bool) {
	if i == nil {
		return Final{}, false
	}
	f, ok := i.byID[gameID]
	return f, ok
}

// Len returns the number of finalized games.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.ids)
}
