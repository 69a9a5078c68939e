// Package config defines service configuration and how it is loaded.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// QueueSize bounds the recompute queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// RefreshInterval schedules a periodic recompute; zero disables it.
	RefreshInterval time.Duration `koanf:"refresh_interval"`

	// ScoringPolicy is "draw-weighted" or "flat".
	ScoringPolicy string `koanf:"scoring_policy"`
	// ProfilePolicy is "drop" or "fallback".
	ProfilePolicy string `koanf:"profile_policy"`

	// Source selects the snapshot source: memory, file, postgres, dynamodb.
	Source string `koanf:"source"`
	// SourcePath is the YAML or JSON snapshot read by the file source.
	SourcePath string `koanf:"source_path"`

	PostgresDSN      string `koanf:"postgres_dsn"`
	PostgresMaxConns int32  `koanf:"postgres_max_conns"`
	PostgresMigrate  bool   `koanf:"postgres_migrate"`

	DynamoDBRegion           string `koanf:"dynamodb_region"`
	DynamoDBEndpoint         string `koanf:"dynamodb_endpoint"`
	DynamoDBGamesTable       string `koanf:"dynamodb_games_table"`
	DynamoDBPredictionsTable string `koanf:"dynamodb_predictions_table"`
	DynamoDBProfilesTable    string `koanf:"dynamodb_profiles_table"`

	// RedisEnabled mirrors every published snapshot into Redis.
	RedisEnabled  bool          `koanf:"redis_enabled"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisPrefix   string        `koanf:"redis_prefix"`
	RedisTTL      time.Duration `koanf:"redis_ttl"`

	// KafkaEnabled consumes result and prediction messages.
	KafkaEnabled bool     `koanf:"kafka_enabled"`
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`
	KafkaGroupID string   `koanf:"kafka_group_id"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		ShutdownTimeout:     10 * time.Second,
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		RefreshInterval:     time.Minute,
		ScoringPolicy:       "draw-weighted",
		ProfilePolicy:       "drop",
		Source:              "memory",

		PostgresMaxConns: 10,
		PostgresMigrate:  true,

		DynamoDBGamesTable:       "games",
		DynamoDBPredictionsTable: "predictions",

		RedisAddr:   "localhost:6379",
		RedisPrefix: "scoreline",

		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "scoreline-feed",
		KafkaGroupID: "scoreline",
	}
}
