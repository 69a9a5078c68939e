package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/scoreline/internal/adapters/repository"
	"github.com/okian/scoreline/internal/domain/leaderboard"
	"github.com/okian/scoreline/internal/domain/types"
	"github.com/okian/scoreline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEncoding(t *testing.T) {
	Convey("Given a published snapshot", t, func() {
		snap := &repository.Snapshot{
			Version:     7,
			PublishedAt: time.Date(2025, 5, 9, 20, 0, 0, 0, time.UTC),
			Standings: []types.Standing{
				{Rank: 1, UserID: "u2", Name: "Bea", Points: 20},
				{Rank: 2, UserID: "u1", Name: "Al", Points: 9},
			},
			Stats: leaderboard.Stats{Users: 2, Scored: 3, Skipped: map[string]int{}},
		}

		Convey("Then the document keeps standings in published order", func() {
			b, err := encodeDocument(snap)
			So(err, ShouldBeNil)

			var doc Document
			So(json.Unmarshal(b, &doc), ShouldBeNil)
			So(doc.Version, ShouldEqual, 7)
			So(doc.Standings, ShouldResemble, snap.Standings)
			So(doc.Stats.Scored, ShouldEqual, 3)
		})

		Convey("Then sorted set members carry points as scores", func() {
			members := zMembers(snap.Standings)
			So(members, ShouldHaveLength, 2)
			So(members[0].Member, ShouldEqual, "u2")
			So(members[0].Score, ShouldEqual, 20)
		})

		Convey("Then names are keyed by user id", func() {
			So(names(snap.Standings), ShouldResemble, map[string]any{"u1": "Al", "u2": "Bea"})
		})

		Convey("Then an empty snapshot encodes an empty list", func() {
			b, err := encodeDocument(&repository.Snapshot{})
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"standings":[]`)
		})
	})
}

func TestKeys(t *testing.T) {
	_ = logger.Init()
	Convey("Given a publisher without a prefix", t, func() {
		p := NewWithClient(nil, Config{})
		So(p.standingsKey(), ShouldEqual, "scoreline:standings")
		So(p.snapshotKey(), ShouldEqual, "scoreline:snapshot")
		So(p.Name(), ShouldEqual, "redis")
		So(p.Close(), ShouldBeNil)
	})
}
