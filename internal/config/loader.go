package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/scoring"
)

var (
	// ErrInvalidConfig marks a configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or environment that could not be read.
	ErrLoadConfig = errors.New("load config failed")
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SCORELINE_"

// EnvConfigPath names the variable holding an optional YAML config file.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SCORELINE_CONFIG is set
//  3. env (prefix SCORELINE_)
func Load(_ context.Context) (*Config, error) {
	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SCORELINE_QUEUE_SIZE -> queue_size; keys stay flat to match the tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	if c.MaxLeaderboardLimit < 1 {
		return invalid("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit)
	}
	if c.QueueSize < 1 {
		return invalid("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.RefreshInterval < 0 {
		return invalid("refresh_interval must not be negative")
	}
	if _, err := scoring.ParsePolicy(c.ScoringPolicy); err != nil {
		return invalid("scoring_policy: %v", err)
	}
	if _, err := leaderboard.ParseProfilePolicy(c.ProfilePolicy); err != nil {
		return invalid("profile_policy: %v", err)
	}

	switch strings.ToLower(c.Source) {
	case source.KindMemory:
	case source.KindFile:
		if c.SourcePath == "" {
			return invalid("source_path is required for the file source")
		}
	case source.KindPostgres:
		if c.PostgresDSN == "" {
			return invalid("postgres_dsn is required for the postgres source")
		}
	case source.KindDynamoDB:
		if c.DynamoDBGamesTable == "" || c.DynamoDBPredictionsTable == "" {
			return invalid("dynamodb_games_table and dynamodb_predictions_table are required for the dynamodb source")
		}
	default:
		return invalid("source %q: %v", c.Source, source.ErrUnknownKind)
	}

	if c.RedisEnabled && c.RedisAddr == "" {
		return invalid("redis_addr is required when redis is enabled")
	}
	if c.KafkaEnabled && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" || c.KafkaGroupID == "") {
		return invalid("kafka_brokers, kafka_topic and kafka_group_id are required when kafka is enabled")
	}
	return nil
}
