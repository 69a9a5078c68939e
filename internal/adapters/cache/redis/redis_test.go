package redis_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/scoreline/internal/adapters/cache/redis"
	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// TestPublisherIntegration needs a Redis server at SCORELINE_TEST_REDIS_ADDR.
func TestPublisherIntegration(t *testing.T) {
	addr := os.Getenv("SCORELINE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SCORELINE_TEST_REDIS_ADDR not set")
	}
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a publisher on a scratch prefix", t, func() {
		prefix := "scoreline-test-" + time.Now().Format("150405.000000")
		p, err := redis.New(ctx, redis.Config{Addr: addr, Prefix: prefix, TTL: time.Minute})
		So(err, ShouldBeNil)
		defer p.Close()

		store := repository.NewSnapshotStore()
		snap, err := store.Publish(ctx, 1, leaderboard.Result{Standings: []types.Standing{
			{Rank: 1, UserID: "u1", Name: "Al", Points: 12},
			{Rank: 2, UserID: "u2", Name: "Bea", Points: 3},
		}})
		So(err, ShouldBeNil)

		Convey("When a snapshot is published", func() {
			So(p.Publish(ctx, snap), ShouldBeNil)

			Convey("Then it can be read back", func() {
				doc, err := p.Load(ctx)
				So(err, ShouldBeNil)
				So(doc.Version, ShouldEqual, 1)
				So(doc.Standings, ShouldResemble, snap.Standings)

				pts, err := p.Points(ctx, "u1")
				So(err, ShouldBeNil)
				So(pts, ShouldEqual, 12)

				_, err = p.Points(ctx, "ghost")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Reset(func() {
			c := goredis.NewClient(&goredis.Options{Addr: addr})
			c.Del(ctx, prefix+":standings", prefix+":names", prefix+":snapshot", prefix+":version")
			_ = c.Close()
		})
	})
}
