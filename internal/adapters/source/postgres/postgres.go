// Package postgres loads snapshots from PostgreSQL through pgx and accepts
// submissions.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/pkg/logger"
)

// Migrations create the tables read by Load. Predictions are ordered by seq,
// the order in which users first submitted.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id         TEXT PRIMARY KEY,
		home_team  TEXT NOT NULL,
		away_team  TEXT NOT NULL,
		start_time TIMESTAMPTZ,
		result     JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		seq         BIGSERIAL,
		user_id     TEXT PRIMARY KEY,
		predictions JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id  TEXT PRIMARY KEY,
		username TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_seq ON predictions(seq)`,
}

const (
	selectGames       = `SELECT id, home_team, away_team, start_time, result FROM games ORDER BY start_time NULLS LAST, id`
	selectPredictions = `SELECT user_id, predictions, updated_at FROM predictions ORDER BY seq`
	selectProfiles    = `SELECT user_id, username FROM profiles`
	selectKnownGames  = `SELECT id FROM games WHERE id = ANY($1)`
	upsertMerge       = `INSERT INTO predictions (user_id, predictions, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET predictions = predictions.predictions || EXCLUDED.predictions, updated_at = EXCLUDED.updated_at`
	upsertReplace = `INSERT INTO predictions (user_id, predictions, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET predictions = EXCLUDED.predictions, updated_at = EXCLUDED.updated_at`
	updateResult = `UPDATE games SET result = jsonb_build_object('home', $2::int, 'away', $3::int) WHERE id = $1`
)

// Config holds pool settings.
type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	Migrate         bool
}

// Source reads and writes the games, predictions and profiles tables.
type Source struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// New connects, pings and optionally migrates.
func New(ctx context.Context, cfg Config) (*Source, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Source{pool: pool, logger: logger.Get().Named("source.postgres")}
	if cfg.Migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate runs Migrations.
func (s *Source) Migrate(ctx context.Context) error {
	for _, m := range Migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	s.logger.Info(ctx, "database migrations completed")
	return nil
}

// Close closes the pool.
func (s *Source) Close() { s.pool.Close() }

// Name implements source.Source.
func (s *Source) Name() string { return source.KindPostgres }

// Load implements source.Source. Profiles are nil when the profiles table is
// empty.
func (s *Source) Load(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{TakenAt: time.Now().UTC()}

	games, err := s.loadGames(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.Games = games

	docs, err := s.loadPredictions(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.Predictions = docs

	profiles, err := s.loadProfiles(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	if len(profiles) > 0 {
		snap.Profiles = profiles
	}
	return snap, nil
}

func (s *Source) loadGames(ctx context.Context) ([]model.Game, error) {
	rows, err := s.pool.Query(ctx, selectGames)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		var (
			r     gameRow
			start *time.Time
		)
		if err := rows.Scan(&r.id, &r.homeTeam, &r.awayTeam, &start, &r.result); err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		if start != nil {
			r.startTime = *start
		}
		games = append(games, r.toGame())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

func (s *Source) loadPredictions(ctx context.Context) ([]model.PredictionDocument, error) {
	rows, err := s.pool.Query(ctx, selectPredictions)
	if err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	defer rows.Close()

	var docs []model.PredictionDocument
	for rows.Next() {
		var (
			userID    string
			preds     map[string]any
			updatedAt time.Time
		)
		if err := rows.Scan(&userID, &preds, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning predictions: %w", err)
		}
		doc := source.DecodeDocument(userID, map[string]any{source.FieldPredictions: preds})
		doc.UpdatedAt = updatedAt.UTC()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	return docs, nil
}

func (s *Source) loadProfiles(ctx context.Context) (map[string]model.Profile, error) {
	rows, err := s.pool.Query(ctx, selectProfiles)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Profile, error) {
		var p model.Profile
		err := row.Scan(&p.UserID, &p.Username)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning profiles: %w", err)
	}
	out := make(map[string]model.Profile, len(profiles))
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

// SavePredictions implements source.Writer.
func (s *Source) SavePredictions(ctx context.Context, userID string, guesses map[string]model.RawGuess, replace bool, at time.Time) error {
	ids := make([]string, 0, len(guesses))
	for id := range guesses {
		ids = append(ids, id)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(ids) > 0 {
		rows, err := tx.Query(ctx, selectKnownGames, ids)
		if err != nil {
			return fmt.Errorf("checking games: %w", err)
		}
		known, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("checking games: %w", err)
		}
		if missing := missingIDs(ids, known); len(missing) > 0 {
			return fmt.Errorf("%w: %v", source.ErrUnknownGame, missing)
		}
	}

	query := upsertMerge
	if replace {
		query = upsertReplace
	}
	if _, err := tx.Exec(ctx, query, userID, source.EncodeGuesses(guesses), at.UTC()); err != nil {
		return fmt.Errorf("saving predictions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing predictions: %w", err)
	}
	return nil
}

// SetResult implements source.Writer.
func (s *Source) SetResult(ctx context.Context, gameID string, home, away int) error {
	tag, err := s.pool.Exec(ctx, updateResult, gameID, home, away)
	if err != nil {
		return fmt.Errorf("setting result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", source.ErrUnknownGame, gameID)
	}
	return nil
}

type gameRow struct {
	id        string
	homeTeam  string
	awayTeam  string
	startTime time.Time
	result    map[string]any
}

func (r gameRow) toGame() model.Game {
	g := model.Game{ID: r.id, HomeTeam: r.homeTeam, AwayTeam: r.awayTeam, StartTime: r.startTime.UTC()}
	if r.result != nil {
		g.Result = &model.RawResult{Home: r.result[source.FieldHome], Away: r.result[source.FieldAway]}
	}
	return g
}

func missingIDs(want, have []string) []string {
	found := make(map[string]struct{}, len(have))
	for _, id := range have {
		found[id] = struct{}{}
	}
	var missing []string
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
