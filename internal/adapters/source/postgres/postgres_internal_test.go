package postgres

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGameRow(t *testing.T) {
	Convey("Given scanned game rows", t, func() {
		start := time.Date(2025, 5, 9, 19, 20, 0, 0, time.FixedZone("CEST", 2*60*60))

		Convey("A row with a result becomes a finalized game in UTC", func() {
			g := gameRow{id: "g1", homeTeam: "CAN", awayTeam: "USA", startTime: start,
				result: map[string]any{"home": float64(3), "away": float64(1)}}.toGame()
			So(g.Finalized(), ShouldBeTrue)
			So(g.StartTime.Location(), ShouldEqual, time.UTC)
			So(g.StartTime.Equal(start), ShouldBeTrue)
		})

		Convey("A row with a NULL result stays open", func() {
			g := gameRow{id: "g2", homeTeam: "FIN", awayTeam: "SWE"}.toGame()
			So(g.Result, ShouldBeNil)
		})
	})
}

func TestMissingIDs(t *testing.T) {
	Convey("Given requested and found game ids", t, func() {
		So(missingIDs([]string{"g1", "g2", "g3"}, []string{"g2"}), ShouldResemble, []string{"g1", "g3"})
		So(missingIDs([]string{"g1"}, []string{"g1"}), ShouldBeEmpty)
	})
}
