// Package service wires the snapshot source, the aggregator and the
// standings store behind the operations the HTTP API and the feed need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	eventqueue "github.com/okian/scoreline/internal/adapters/mq/queue"
	workerpool "github.com/okian/scoreline/internal/adapters/mq/worker"
	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/dedupe"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/results"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

// Publisher receives every snapshot the service publishes.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap *repository.Snapshot) error
}

// view is what the last successful recompute read, kept for the games
// listing and per-user breakdowns so they agree with the standings.
type view struct {
	snapshot model.Snapshot
	games    []model.Game // by start time
	index    *results.Index
}

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu          sync.RWMutex // lifecycle
	recomputeMu sync.Mutex   // one recompute at a time

	src        source.Source
	aggregator *leaderboard.Aggregator
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue eventqueue.Queue
	workerPool *workerpool.Pool
	publishers []Publisher

	workerCount     int
	queueSize       int
	dedupeSize      int
	refreshInterval time.Duration

	writes     atomic.Uint64 // bumped after every applied write
	last       atomic.Pointer[view]
	recomputes atomic.Int64
	failures   atomic.Int64
	lastErr    atomic.Pointer[string]

	started  bool
	stopCh   chan struct{}
	loopDone chan struct{}
	cancel   context.CancelFunc

	now    func() time.Time
	logger logger.Logger
}

// New constructs a Service reading from src.
func New(src source.Source, opts ...Option) *Service {
	s := &Service{
		src:         src,
		aggregator:  leaderboard.New(),
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.store = repository.NewSnapshotStore(repository.WithClock(s.now))
	return s
}

// Start runs the first recompute and starts the workers. It fails when the
// first snapshot cannot be loaded.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting leaderboard service...",
		logger.String("source", s.src.Name()),
		logger.String("scoring_policy", string(s.aggregator.Policy())),
		logger.String("profile_policy", string(s.aggregator.ProfilePolicy())),
	)

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(
		eventqueue.WithCapacity(s.queueSize),
		eventqueue.WithCoalescing(true),
	)

	startup := model.Trigger{ID: uuid.NewString(), Reason: model.TriggerStartup, RequestedAt: s.now()}
	if err := s.Recompute(ctx, startup); err != nil {
		return fmt.Errorf("initial recompute: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s,
		workerpool.WithPoolLogger(s.logger.Named("workers")),
	)
	s.workerPool.Start(runCtx)

	s.stopCh = make(chan struct{})
	s.loopDone = make(chan struct{})
	go s.refreshLoop(runCtx)

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop drains queued recomputes and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping leaderboard service...")

	close(s.stopCh)
	<-s.loopDone

	err := s.workerPool.Shutdown(ctx)
	s.cancel()
	s.started = false

	s.logger.Info(ctx, "leaderboard service stopped")
	return err
}

func (s *Service) refreshLoop(ctx context.Context) {
	defer close(s.loopDone)
	if s.refreshInterval <= 0 {
		<-s.stopCh
		return
	}

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := model.Trigger{ID: uuid.NewString(), Reason: model.TriggerRefresh, RequestedAt: s.now()}
			if !s.eventQueue.Enqueue(ctx, t) {
				s.logger.Debug(ctx, "refresh skipped, queue full")
			}
		}
	}
}

// Recompute reads a snapshot, ranks it and publishes the standings. A
// trigger whose write version is already covered by the published standings
// is skipped. Failures leave the previous standings in place.
func (s *Service) Recompute(ctx context.Context, t model.Trigger) error {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	if t.Version > 0 && s.store.Current().Version >= t.Version {
		metrics.RecordRecomputeSkipped()
		return nil
	}

	start := time.Now()
	// Read before loading: a write landing during the load bumps the
	// counter again and gets its own recompute.
	version := s.writes.Load()

	snap, err := s.src.Load(ctx)
	if err != nil {
		return s.fail(ctx, "load", fmt.Errorf("loading snapshot from %s: %w", s.src.Name(), err))
	}
	metrics.RecordSourceLoad(s.src.Name(), float64(time.Since(start).Microseconds())/1000)

	idx := results.Build(snap.Games)
	res := s.aggregator.Rank(idx, snap.Predictions, snap.Profiles)

	published, err := s.store.Publish(ctx, version, res)
	if err != nil {
		return s.fail(ctx, "publish", err)
	}
	s.last.Store(&view{snapshot: snap, games: snap.GamesByStartTime(), index: idx})

	for _, p := range s.publishers {
		if err := p.Publish(ctx, published); err != nil {
			metrics.RecordRecomputeError("mirror")
			s.logger.Warn(ctx, "mirroring standings failed",
				logger.String("sink", p.Name()),
				logger.Error(err),
			)
		}
	}

	latency := time.Since(start)
	s.recomputes.Add(1)
	metrics.RecordRecompute(t.Reason, float64(latency.Microseconds())/1000)
	metrics.RecordPredictionsScored(res.Stats.Scored)
	for reason, n := range res.Stats.Skipped {
		metrics.RecordPredictionsSkipped(reason, n)
	}
	metrics.UpdateUsersRanked(res.Stats.Users)
	metrics.UpdateUsersDropped(res.Stats.DroppedNoProfile)
	metrics.UpdateFinalizedGames(res.Stats.FinalizedGames)

	s.logger.Debug(ctx, "standings recomputed",
		logger.String("trigger", t.Reason),
		logger.Any("version", version),
		logger.Int("users", res.Stats.Users),
		logger.Int("scored", res.Stats.Scored),
		logger.Duration("latency", latency),
	)
	return nil
}

func (s *Service) fail(ctx context.Context, stage string, err error) error {
	s.failures.Add(1)
	msg := err.Error()
	s.lastErr.Store(&msg)
	metrics.RecordRecomputeError(stage)
	s.logger.Error(ctx, "recompute failed", logger.String("stage", stage), logger.Error(err))
	return err
}

// TopN returns the first n standings.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Standing, error) {
	entries, err := s.store.TopN(ctx, n)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return entries, err
}

// Rank returns the standing of userID.
func (s *Service) Rank(ctx context.Context, userID string) (types.Standing, error) {
	entry, err := s.store.Rank(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Standing{}, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return entry, err
}

// Games lists the games of the last recompute ordered by start time.
func (s *Service) Games(_ context.Context) ([]types.Game, error) {
	v := s.last.Load()
	if v == nil {
		return nil, ErrNotStarted
	}
	out := make([]types.Game, 0, len(v.games))
	for _, g := range v.games {
		item := types.Game{ID: g.ID, HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam}
		if !g.StartTime.IsZero() {
			st := g.StartTime
			item.StartTime = &st
		}
		if final, ok := v.index.Lookup(g.ID); ok {
			item.Finalized = true
			item.Result = &types.ScoreLine{Home: final.HomeScore, Away: final.AwayScore}
		}
		out = append(out, item)
	}
	return out, nil
}

// Breakdown returns the per-game view of userID's predictions as of the
// last recompute.
func (s *Service) Breakdown(_ context.Context, userID string) (leaderboard.Breakdown, error) {
	v := s.last.Load()
	if v == nil {
		return leaderboard.Breakdown{}, ErrNotStarted
	}
	doc, ok := v.snapshot.Document(userID)
	if !ok {
		return leaderboard.Breakdown{}, fmt.Errorf("%w: no predictions for %s", ErrNotFound, userID)
	}
	return s.aggregator.Breakdown(v.index, v.games, doc), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	cur := s.store.Current()
	stats := map[string]interface{}{
		"started":           s.started,
		"source":            s.src.Name(),
		"writable":          s.writable(),
		"scoringPolicy":     string(s.aggregator.Policy()),
		"profilePolicy":     string(s.aggregator.ProfilePolicy()),
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"writeVersion":      s.writes.Load(),
		"standingsVersion":  cur.Version,
		"totalUsers":        s.store.Count(ctx),
		"recomputes":        s.recomputes.Load(),
		"recomputeFailures": s.failures.Load(),
		"ranking":           cur.Stats,
	}
	if !cur.PublishedAt.IsZero() {
		stats["publishedAt"] = cur.PublishedAt
	}
	if v := s.last.Load(); v != nil {
		// Without a lookup no user is dropped, whatever the profile policy.
		stats["profilesLoaded"] = v.snapshot.Profiles != nil
	}
	if msg := s.lastErr.Load(); msg != nil {
		stats["lastError"] = *msg
	}

	if s.started {
		queueLen := s.eventQueue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		stats["workers"] = s.workerPool.Stats()
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func (s *Service) writable() bool {
	_, ok := s.src.(source.Writer)
	return ok
}
