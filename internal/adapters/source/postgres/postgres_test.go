package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/scoreline/internal/adapters/source"
	"github.com/okian/scoreline/internal/adapters/source/postgres"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// TestSourceIntegration runs against a disposable database named by
// SCORELINE_TEST_POSTGRES_DSN.
func TestSourceIntegration(t *testing.T) {
	dsn := os.Getenv("SCORELINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCORELINE_TEST_POSTGRES_DSN not set")
	}
	_ = logger.Init()
	ctx := context.Background()

	src, err := postgres.New(ctx, postgres.Config{DSN: dsn, Migrate: true})
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer src.Close()

	Convey("Given a migrated database", t, func() {
		_, _ = src.Load(ctx)

		Convey("Then unknown games are rejected and results are applied", func() {
			err := src.SavePredictions(ctx, "it-user", map[string]model.RawGuess{"it-missing": {"homeScore": 1, "awayScore": 0}}, false, time.Now())
			So(errors.Is(err, source.ErrUnknownGame), ShouldBeTrue)

			err = src.SetResult(ctx, "it-missing", 1, 0)
			So(errors.Is(err, source.ErrUnknownGame), ShouldBeTrue)
		})
	})
}
