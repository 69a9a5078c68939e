// Package redis mirrors published standings into Redis so other services
// can read them without calling the API.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

const (
	sinkName      = "redis"
	defaultPrefix = "scoreline"
)

// Config holds connection settings for the publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Document is the JSON value stored under the snapshot key. The sorted set
// orders ties by member id, so readers that need encounter order use this.
type Document struct {
	Version     uint64            `json:"version"`
	PublishedAt time.Time         `json:"published_at"`
	Standings   []types.Standing  `json:"standings"`
	Stats       leaderboard.Stats `json:"stats"`
}

// Publisher writes every published snapshot to Redis.
type Publisher struct {
	client redis.Cmdable
	closer func() error
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// New connects to Redis and checks the connection.
func New(ctx context.Context, cfg Config, opts ...Option) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	p := NewWithClient(client, cfg, opts...)
	p.closer = client.Close
	return p, nil
}

// NewWithClient uses an existing client. Close leaves it open.
func NewWithClient(client redis.Cmdable, cfg Config, opts ...Option) *Publisher {
	p := &Publisher{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
	if p.prefix == "" {
		p.prefix = defaultPrefix
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("redis-publisher")
	}
	return p
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return sinkName }

// Close closes the connection opened by New.
func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

func (p *Publisher) standingsKey() string { return p.prefix + ":standings" }
func (p *Publisher) namesKey() string     { return p.prefix + ":names" }
func (p *Publisher) snapshotKey() string  { return p.prefix + ":snapshot" }
func (p *Publisher) versionKey() string   { return p.prefix + ":version" }

// Publish replaces the mirrored standings with snap in one transaction.
func (p *Publisher) Publish(ctx context.Context, snap *repository.Snapshot) error {
	if snap == nil {
		return nil
	}
	doc, err := encodeDocument(snap)
	if err != nil {
		metrics.RecordPublish(sinkName, "error")
		return err
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, p.standingsKey(), p.namesKey())
		if members := zMembers(snap.Standings); len(members) > 0 {
			pipe.ZAdd(ctx, p.standingsKey(), members...)
			pipe.HSet(ctx, p.namesKey(), names(snap.Standings))
		}
		pipe.Set(ctx, p.snapshotKey(), doc, p.ttl)
		pipe.Set(ctx, p.versionKey(), snap.Version, p.ttl)
		if p.ttl > 0 {
			pipe.Expire(ctx, p.standingsKey(), p.ttl)
			pipe.Expire(ctx, p.namesKey(), p.ttl)
		}
		return nil
	})
	if err != nil {
		metrics.RecordPublish(sinkName, "error")
		metrics.RecordErrorByComponent("redis", "publish_error")
		return fmt.Errorf("publishing standings v%d: %w", snap.Version, err)
	}

	metrics.RecordPublish(sinkName, "ok")
	p.logger.Debug(ctx, "standings mirrored",
		logger.Any("version", snap.Version),
		logger.Int("users", len(snap.Standings)),
	)
	return nil
}

// Load reads back the mirrored snapshot document. It returns
// repository.ErrNotFound when nothing was published yet.
func (p *Publisher) Load(ctx context.Context) (Document, error) {
	raw, err := p.client.Get(ctx, p.snapshotKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return Document{}, repository.ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("getting snapshot: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return doc, nil
}

// Points returns the mirrored points of userID.
func (p *Publisher) Points(ctx context.Context, userID string) (int, error) {
	score, err := p.client.ZScore(ctx, p.standingsKey(), userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %s", repository.ErrNotFound, userID)
	}
	if err != nil {
		return 0, fmt.Errorf("getting points: %w", err)
	}
	return int(score), nil
}

func encodeDocument(snap *repository.Snapshot) ([]byte, error) {
	standings := snap.Standings
	if standings == nil {
		standings = []types.Standing{}
	}
	b, err := json.Marshal(Document{
		Version:     snap.Version,
		PublishedAt: snap.PublishedAt,
		Standings:   standings,
		Stats:       snap.Stats,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return b, nil
}

func zMembers(standings []types.Standing) []redis.Z {
	out := make([]redis.Z, len(standings))
	for i, s := range standings {
		out[i] = redis.Z{Score: float64(s.Points), Member: s.UserID}
	}
	return out
}

func names(standings []types.Standing) map[string]any {
	out := make(map[string]any, len(standings))
	for _, s := range standings {
		out[s.UserID] = s.Name
	}
	return out
}
