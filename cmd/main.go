package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okian/scoreline/internal/adapters/cache/redis"
	"github.com/okian/scoreline/internal/adapters/feed/kafka"
	"github.com/okian/scoreline/internal/adapters/http/api"
	"github.com/okian/scoreline/internal/adapters/http/swagger"
	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/adapters/source/dynamodb"
	"github.com/okian/scoreline/internal/adapters/source/file"
	"github.com/okian/scoreline/internal/adapters/source/memory"
	"github.com/okian/scoreline/internal/adapters/source/postgres"
	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/config"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/scoring"
	"github.com/okian/scoreline/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "scoreline exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return err
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	src, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource(src)

	aggregator, err := buildAggregator(cfg)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithRefreshInterval(cfg.RefreshInterval),
		service.WithAggregator(aggregator),
	}
	if cfg.RedisEnabled {
		pub, err := redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			TTL:      cfg.RedisTTL,
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = pub.Close() }()
		opts = append(opts, service.WithPublishers(pub))
	}

	svc := service.New(src, opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Warn(ctx, "service stop", logger.Error(err))
		}
	}()

	if cfg.KafkaEnabled {
		consumer, err := kafka.New(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}, svc)
		if err != nil {
			return err
		}
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		// Stops before the service so no feed message races the drain.
		defer func() {
			if err := consumer.Stop(context.WithoutCancel(ctx)); err != nil {
				log.Warn(ctx, "kafka consumer stop", logger.Error(err))
			}
		}()
	}

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg.MaxLeaderboardLimit),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, svc *service.Service, maxLimit int) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, maxLimit).Register(ctx, mux)
	return mux
}

// buildSource opens the configured snapshot source. Sources holding
// connections implement source.Closer; see closeSource.
func buildSource(ctx context.Context, cfg *config.Config) (source.Source, error) {
	switch strings.ToLower(cfg.Source) {
	case source.KindMemory:
		var snap model.Snapshot
		if cfg.SourcePath != "" {
			seed, err := file.New(cfg.SourcePath).Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("seeding memory source: %w", err)
			}
			snap = seed
		}
		return memory.New(snap), nil
	case source.KindFile:
		return file.New(cfg.SourcePath), nil
	case source.KindPostgres:
		src, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.PostgresDSN,
			MaxConns: cfg.PostgresMaxConns,
			Migrate:  cfg.PostgresMigrate,
		})
		if err != nil {
			return nil, fmt.Errorf("opening postgres source: %w", err)
		}
		return src, nil
	case source.KindDynamoDB:
		src, err := dynamodb.New(ctx, dynamodb.Config{
			Region:           cfg.DynamoDBRegion,
			Endpoint:         cfg.DynamoDBEndpoint,
			GamesTable:       cfg.DynamoDBGamesTable,
			PredictionsTable: cfg.DynamoDBPredictionsTable,
			ProfilesTable:    cfg.DynamoDBProfilesTable,
		})
		if err != nil {
			return nil, fmt.Errorf("opening dynamodb source: %w", err)
		}
		return src, nil
	default:
		return nil, fmt.Errorf("source %q: %w", cfg.Source, source.ErrUnknownKind)
	}
}

// closeSource releases the connections of sources that hold them.
func closeSource(src source.Source) {
	if c, ok := src.(source.Closer); ok {
		c.Close()
	}
}

func buildAggregator(cfg *config.Config) (*leaderboard.Aggregator, error) {
	policy, err := scoring.ParsePolicy(cfg.ScoringPolicy)
	if err != nil {
		return nil, err
	}
	profiles, err := leaderboard.ParseProfilePolicy(cfg.ProfilePolicy)
	if err != nil {
		return nil, err
	}
	return leaderboard.New(
		leaderboard.WithPolicy(policy),
		leaderboard.WithProfilePolicy(profiles),
	), nil
}

// startServiceMetricsUpdater refreshes the queue gauges from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
