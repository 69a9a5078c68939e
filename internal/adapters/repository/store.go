// Package repository holds the published standings and answers leaderboard
// queries against them.
package repository

import (
	"context"
	"time"

	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/types"
)

// Entry is one row of the published standings.
type Entry = types.Standing

// Snapshot is an immutable published ranking.
type Snapshot struct {
	Version     uint64
	Standings   []Entry
	Stats       leaderboard.Stats
	PublishedAt time.Time

	byUser map[string]int
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Publish replaces the standings. A version lower than the current one
	// is rejected with ErrStaleVersion.
	Publish(ctx context.Context, version uint64, res leaderboard.Result) (*Snapshot, error)

	// Rank returns the standing of userID or ErrNotFound.
	Rank(ctx context.Context, userID string) (Entry, error)

	// TopN returns the first n standings.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context) int

	// Current returns the latest snapshot. It is never nil.
	Current() *Snapshot
}
