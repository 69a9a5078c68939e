package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/scoreline/internal/domain/scoring"
	"github.com/okian/scoreline/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
	pollInterval        = 100 * time.Millisecond
)

// ErrMismatch is returned when the service disagrees with the local scoring.
var ErrMismatch = errors.New("standings do not match expected points")

// Run executes one seed-and-verify pass against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("seed")
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting scoreline seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("workers", cfg.Workers),
		logger.Bool("results", cfg.Results),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	svcStats, err := client.Stats(ctx)
	if err != nil {
		return stats, fmt.Errorf("reading service stats: %w", err)
	}
	if !svcStats.Writable {
		return stats, fmt.Errorf("service source is read-only")
	}
	policy, err := scoring.ParsePolicy(svcStats.ScoringPolicy)
	if err != nil {
		return stats, err
	}

	games, err := client.Games(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing games: %w", err)
	}
	if len(games) == 0 {
		return stats, fmt.Errorf("service has no games to predict")
	}
	ids := make([]string, len(games))
	var open []string
	for i, g := range games {
		ids[i] = g.ID
		if !g.Finalized {
			open = append(open, g.ID)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := NewGenerator(seed)
	subs := gen.Predictions(cfg.Users, ids)
	stats.UsersGenerated = len(subs)

	var maxVersion atomic.Uint64
	track := func(r Receipt) {
		for {
			cur := maxVersion.Load()
			if r.Version <= cur || maxVersion.CompareAndSwap(cur, r.Version) {
				return
			}
		}
	}

	var mu sync.Mutex
	submitAll(ctx, cfg.Workers, len(subs), func(i int) {
		r, err := client.SubmitPredictions(ctx, subs[i])
		mu.Lock()
		recordReceipt(stats, r, err)
		mu.Unlock()
		if err != nil && cfg.Verbose {
			log.Warn(ctx, "submission failed", logger.String("user_id", subs[i].UserID), logger.Error(err))
		}
		if err == nil {
			track(r)
		}
	})

	if cfg.Results {
		for _, res := range gen.Results(open) {
			r, err := client.SubmitResult(ctx, res)
			if err != nil {
				log.Warn(ctx, "result not accepted", logger.String("game_id", res.GameID), logger.Error(err))
				continue
			}
			stats.ResultsPosted++
			track(r)
		}
	}

	if err := waitForVersion(ctx, client, maxVersion.Load(), cfg.SettleAfter); err != nil {
		return stats, err
	}

	// Re-read the games so results posted above are part of the expectation.
	if games, err = client.Games(ctx); err != nil {
		return stats, fmt.Errorf("listing games: %w", err)
	}
	want := Expected(games, subs, policy)
	dropped := svcStats.dropsUnprofiled()

	var mismatches atomic.Int64
	submitAll(ctx, cfg.Workers, len(subs), func(i int) {
		userID := subs[i].UserID
		got, err := client.Rank(ctx, userID)
		if err := CheckRank(want[userID], dropped, got, err); err != nil {
			mismatches.Add(1)
			log.Warn(ctx, "rank mismatch", logger.String("user_id", userID), logger.Error(err))
		}
	})
	stats.RanksChecked = len(subs)
	stats.Mismatches = int(mismatches.Load())

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(board)
	if err := CheckLeaderboard(board); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrMismatch, err)
	}

	if cfg.OutputFile != "" {
		if err := saveSubmissions(cfg.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	if stats.Mismatches > 0 {
		return stats, fmt.Errorf("%w: %d users", ErrMismatch, stats.Mismatches)
	}
	return stats, nil
}

// submitAll runs fn for 0..n-1 on a pool of workers.
func submitAll(ctx context.Context, workers, n int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}

func recordReceipt(stats *Stats, r Receipt, err error) {
	stats.Submitted++
	switch {
	case err != nil:
		stats.Failed++
	case r.Duplicate:
		stats.Duplicate++
	default:
		stats.Accepted++
	}
}

// waitForVersion polls /stats until the published standings cover version.
func waitForVersion(ctx context.Context, client *Client, version uint64, limit time.Duration) error {
	deadline := time.Now().Add(limit)
	for {
		s, err := client.Stats(ctx)
		if err == nil && s.StandingsVersion >= version {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("standings did not reach version %d within %s", version, limit)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "final statistics",
		logger.Int("usersGenerated", stats.UsersGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("resultsPosted", stats.ResultsPosted),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
	)
}
