package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/scoreline/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Source, convey.ShouldEqual, "memory")
				convey.So(cfg.KafkaBrokers, convey.ShouldResemble, []string{"localhost:9092"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCORELINE_ADDR", ":8080")
			_ = os.Setenv("SCORELINE_QUEUE_SIZE", "64")
			_ = os.Setenv("SCORELINE_WORKER_COUNT", "3")
			_ = os.Setenv("SCORELINE_REFRESH_INTERVAL", "15s")
			_ = os.Setenv("SCORELINE_SCORING_POLICY", "flat")
			_ = os.Setenv("SCORELINE_KAFKA_BROKERS", "k1:9092,k2:9092")
			_ = os.Setenv("SCORELINE_REDIS_ENABLED", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.RefreshInterval, convey.ShouldEqual, 15*time.Second)
				convey.So(cfg.ScoringPolicy, convey.ShouldEqual, "flat")
				convey.So(cfg.KafkaBrokers, convey.ShouldResemble, []string{"k1:9092", "k2:9092"})
				convey.So(cfg.RedisEnabled, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
queue_size: 300
source: file
source_path: /srv/scoreline/snapshot.yaml
profile_policy: fallback
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SCORELINE_CONFIG", tmpFile)
			_ = os.Setenv("SCORELINE_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env vars win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.Source, convey.ShouldEqual, "file")
				convey.So(cfg.SourcePath, convey.ShouldEqual, "/srv/scoreline/snapshot.yaml")
				convey.So(cfg.ProfilePolicy, convey.ShouldEqual, "fallback")
			})
		})

		convey.Convey("When the YAML file is invalid", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SCORELINE_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("SCORELINE_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = " " },
			"zero limit":          func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"zero queue":          func(c *config.Config) { c.QueueSize = 0 },
			"negative refresh":    func(c *config.Config) { c.RefreshInterval = -time.Second },
			"unknown scoring":     func(c *config.Config) { c.ScoringPolicy = "double" },
			"unknown profile":     func(c *config.Config) { c.ProfilePolicy = "hide" },
			"unknown source":      func(c *config.Config) { c.Source = "firestore" },
			"file without path":   func(c *config.Config) { c.Source = "file" },
			"postgres no dsn":     func(c *config.Config) { c.Source = "postgres" },
			"dynamodb no table":   func(c *config.Config) { c.Source = "dynamodb"; c.DynamoDBGamesTable = "" },
			"redis without addr":  func(c *config.Config) { c.RedisEnabled = true; c.RedisAddr = "" },
			"kafka without topic": func(c *config.Config) { c.KafkaEnabled = true; c.KafkaTopic = "" },
		}

		for name, mutate := range cases {
			convey.Convey("Then "+name+" is rejected", func() {
				cfg := config.New()
				mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a complete postgres setup", t, func() {
		cfg := config.New()
		cfg.Source = "postgres"
		cfg.PostgresDSN = "postgres://scoreline@localhost/scoreline"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, config.EnvPrefix) {
			_ = os.Unsetenv(name)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "scoreline-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
