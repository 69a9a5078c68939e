// Package source declares where snapshots come from and how writes reach
// them. Implementations live in the subpackages.
package source

import (
	"context"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
)

// Kinds of source accepted by configuration.
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindPostgres = "postgres"
	KindDynamoDB = "dynamodb"
)

// Source loads a complete snapshot.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	Load(ctx context.Context) (model.Snapshot, error)
}

// Writer is implemented by sources that accept submissions.
type Writer interface {
	// SavePredictions stores guesses for userID. With replace set the
	// user's document is replaced, otherwise guesses are merged per game.
	SavePredictions(ctx context.Context, userID string, guesses map[string]model.RawGuess, replace bool, at time.Time) error

	// SetResult attaches a final score to gameID. Returns ErrUnknownGame if
	// the game does not exist.
	SetResult(ctx context.Context, gameID string, home, away int) error
}

// Closer is implemented by sources holding connections.
type Closer interface {
	Close()
}
