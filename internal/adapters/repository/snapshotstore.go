package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/pkg/metrics"
)

// SnapshotStore keeps the latest standings behind an atomic pointer so
// readers never wait on a publish.
type SnapshotStore struct {
	mu       sync.Mutex // serializes Publish
	snapshot atomic.Pointer[Snapshot]
	now      func() time.Time
}

// NewSnapshotStore creates an empty store at version 0.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{Standings: []Entry{}, byUser: map[string]int{}})
	return s
}

// Publish implements Store.
func (s *SnapshotStore) Publish(_ context.Context, version uint64, res leaderboard.Result) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snapshot.Load()
	if version < cur.Version {
		metrics.RecordErrorByComponent("repository", "stale_version")
		return nil, fmt.Errorf("%w: %d < %d", ErrStaleVersion, version, cur.Version)
	}

	standings := make([]Entry, len(res.Standings))
	copy(standings, res.Standings)
	byUser := make(map[string]int, len(standings))
	for i, e := range standings {
		byUser[e.UserID] = i
	}

	next := &Snapshot{
		Version:     version,
		Standings:   standings,
		Stats:       res.Stats,
		PublishedAt: s.now().UTC(),
		byUser:      byUser,
	}
	s.snapshot.Store(next)
	metrics.UpdateStandingsVersion(version)
	return next, nil
}

// Rank implements Store.
func (s *SnapshotStore) Rank(_ context.Context, userID string) (Entry, error) {
	snap := s.snapshot.Load()
	i, ok := snap.byUser[userID]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return snap.Standings[i], nil
}

// TopN implements Store.
func (s *SnapshotStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	snap := s.snapshot.Load()
	n = min(n, len(snap.Standings))
	out := make([]Entry, n)
	copy(out, snap.Standings[:n])
	return out, nil
}

// Count implements Store.
func (s *SnapshotStore) Count(_ context.Context) int {
	return len(s.snapshot.Load().Standings)
}

// Current implements Store.
func (s *SnapshotStore) Current() *Snapshot {
	return s.snapshot.Load()
}
