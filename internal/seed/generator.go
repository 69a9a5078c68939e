package seed

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/scoreline/internal/domain/types"
)

// maxGoals bounds generated scores; real scores rarely pass it.
const maxGoals = 5

// Generator produces reproducible submissions for a fixed seed.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a generator for seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Predictions generates one submission per user, each predicting every
// game in gameIDs.
func (g *Generator) Predictions(users int, gameIDs []string) []Submission {
	out := make([]Submission, users)
	for i := range out {
		preds := make(map[string]types.ScoreLine, len(gameIDs))
		for _, id := range gameIDs {
			preds[id] = g.line()
		}
		out[i] = Submission{
			SubmissionID: uuid.NewString(),
			UserID:       "seed-" + uuid.NewString()[:8],
			Predictions:  preds,
		}
	}
	return out
}

// Results generates a final score for each game.
func (g *Generator) Results(gameIDs []string) []ResultBody {
	out := make([]ResultBody, len(gameIDs))
	for i, id := range gameIDs {
		line := g.line()
		out[i] = ResultBody{SubmissionID: uuid.NewString(), GameID: id, Home: line.Home, Away: line.Away}
	}
	return out
}

func (g *Generator) line() types.ScoreLine {
	return types.ScoreLine{Home: g.rnd.IntN(maxGoals + 1), Away: g.rnd.IntN(maxGoals + 1)}
}
