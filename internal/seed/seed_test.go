package seed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/scoreline/internal/adapters/http/api"
	"github.com/okian/scoreline/internal/adapters/source/memory"
	service "github.com/okian/scoreline/internal/app"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/scoring"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/internal/seed"
	"github.com/okian/scoreline/pkg/logger"
)

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := seed.NewGenerator(7).Results([]string{"g1", "g2", "g3"})
		b := seed.NewGenerator(7).Results([]string{"g1", "g2", "g3"})

		Convey("Then they produce the same scores", func() {
			for i := range a {
				So(a[i].Home, ShouldEqual, b[i].Home)
				So(a[i].Away, ShouldEqual, b[i].Away)
				So(a[i].Home, ShouldBeBetweenOrEqual, 0, 5)
			}
		})

		Convey("And every user predicts every game", func() {
			subs := seed.NewGenerator(1).Predictions(3, []string{"g1", "g2"})
			So(subs, ShouldHaveLength, 3)
			for _, s := range subs {
				So(s.Predictions, ShouldHaveLength, 2)
				So(s.SubmissionID, ShouldNotBeBlank)
			}
			So(subs[0].UserID, ShouldNotEqual, subs[1].UserID)
		})
	})
}

func TestExpected(t *testing.T) {
	Convey("Given games and submissions", t, func() {
		games := []seed.Game{
			{ID: "g1", Finalized: true, Result: &types.ScoreLine{Home: 2, Away: 2}},
			{ID: "g2"},
		}
		subs := []seed.Submission{
			{UserID: "a", Predictions: map[string]types.ScoreLine{"g1": {Home: 2, Away: 2}, "g2": {Home: 1, Away: 0}}},
			{UserID: "b", Predictions: map[string]types.ScoreLine{"g1": {Home: 1, Away: 1}}},
			{UserID: "c", Predictions: map[string]types.ScoreLine{"g2": {Home: 1, Away: 0}}},
		}

		Convey("Then only finalized games count, under the given policy", func() {
			want := seed.Expected(games, subs, scoring.DrawWeighted)
			So(want["a"], ShouldEqual, 20)
			So(want["b"], ShouldEqual, 16)
			So(want["c"], ShouldEqual, 0)

			flat := seed.Expected(games, subs, scoring.Flat)
			So(flat["a"], ShouldEqual, 10)
			So(flat["b"], ShouldEqual, 8)
		})
	})
}

func TestChecks(t *testing.T) {
	Convey("Given rank answers", t, func() {
		notFound := &seed.StatusError{Code: http.StatusNotFound}

		So(seed.CheckRank(10, false, seed.Standing{UserID: "a", Points: 10}, nil), ShouldBeNil)
		So(seed.CheckRank(10, false, seed.Standing{UserID: "a", Points: 9}, nil), ShouldNotBeNil)
		So(seed.CheckRank(10, false, seed.Standing{}, notFound), ShouldNotBeNil)
		So(seed.CheckRank(10, true, seed.Standing{}, notFound), ShouldBeNil)
		So(seed.CheckRank(10, true, seed.Standing{UserID: "a", Points: 10}, nil), ShouldNotBeNil)
	})

	Convey("Given leaderboards", t, func() {
		So(seed.CheckLeaderboard([]seed.Standing{{Rank: 1, Points: 20}, {Rank: 1, Points: 20}, {Rank: 2, Points: 7}}), ShouldBeNil)
		So(seed.CheckLeaderboard([]seed.Standing{{Rank: 1, Points: 7}, {Rank: 2, Points: 20}}), ShouldNotBeNil)
		So(seed.CheckLeaderboard([]seed.Standing{{Rank: 1, Points: 20}, {Rank: 3, Points: 7}}), ShouldNotBeNil)
	})
}

// serve runs a service over two games, the first finalized at 3-1, and
// returns its base URL.
func serve(ctx context.Context, profiles map[string]model.Profile, opts ...service.Option) (string, func()) {
	kickoff := time.Date(2025, 5, 9, 17, 20, 0, 0, time.UTC)
	src := memory.New(model.Snapshot{
		Games: []model.Game{
			{ID: "g1", HomeTeam: "CAN", AwayTeam: "USA", StartTime: kickoff, Result: &model.RawResult{Home: 3, Away: 1}},
			{ID: "g2", HomeTeam: "FIN", AwayTeam: "SWE", StartTime: kickoff.Add(time.Hour)},
		},
		Profiles: profiles,
	})
	svc := service.New(src, append([]service.Option{service.WithWorkerCount(2)}, opts...)...)
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc, 100).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	return srv.URL, func() {
		srv.Close()
		_ = svc.Stop(ctx)
	}
}

func runConfig(url string) *seed.Config {
	return &seed.Config{
		BaseURL:     url,
		Users:       20,
		Workers:     4,
		Timeout:     5 * time.Second,
		SettleAfter: 5 * time.Second,
		TopN:        50,
		Results:     true,
		Seed:        42,
	}
}

func TestRun(t *testing.T) {
	_ = logger.Init()
	ctx := context.Background()

	Convey("Given a service with the fallback profile policy", t, func() {
		agg := leaderboard.New(leaderboard.WithProfilePolicy(leaderboard.ProfileFallback))
		url, stop := serve(ctx, nil, service.WithAggregator(agg))
		defer stop()
		cfg := runConfig(url)

		Convey("When the seed run completes", func() {
			stats, err := seed.Run(ctx, cfg)

			Convey("Then every user's points match", func() {
				So(err, ShouldBeNil)
				So(stats.Accepted, ShouldEqual, 20)
				So(stats.ResultsPosted, ShouldEqual, 1)
				So(stats.Mismatches, ShouldEqual, 0)
				So(stats.LeaderboardEntries, ShouldEqual, 20)
			})
		})

		Convey("When the service cannot be reached", func() {
			cfg.BaseURL = "http://127.0.0.1:1"
			_, err := seed.Run(ctx, cfg)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, seed.ErrMismatch), ShouldBeFalse)
		})
	})

	Convey("Given a default service without a profile lookup", t, func() {
		url, stop := serve(ctx, nil)
		defer stop()

		stats, err := seed.Run(ctx, runConfig(url))

		Convey("Then seeded users are ranked under their ids and match", func() {
			So(err, ShouldBeNil)
			So(stats.Mismatches, ShouldEqual, 0)
			So(stats.LeaderboardEntries, ShouldEqual, 20)
		})
	})

	Convey("Given a default service with a profile lookup", t, func() {
		url, stop := serve(ctx, map[string]model.Profile{"zoe": {UserID: "zoe", Username: "Zoe"}})
		defer stop()

		stats, err := seed.Run(ctx, runConfig(url))

		Convey("Then seeded users are dropped and that is expected", func() {
			So(err, ShouldBeNil)
			So(stats.Accepted, ShouldEqual, 20)
			So(stats.Mismatches, ShouldEqual, 0)
			So(stats.LeaderboardEntries, ShouldEqual, 0)
		})
	})
}
