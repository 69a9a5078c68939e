package prediction_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a game between CAN and USA", t, func() {
		const home, away = "CAN", "USA"

		Convey("When the guess is role-keyed", func() {
			g, err := prediction.Normalize(model.RawGuess{"homeScore": 3, "awayScore": "1"}, home, away)

			Convey("Then both scores are extracted", func() {
				So(err, ShouldBeNil)
				So(g.Home, ShouldEqual, 3)
				So(g.Away, ShouldEqual, 1)
				So(g.Shape, ShouldEqual, prediction.ShapeRoleKeyed)
			})
		})

		Convey("When the guess is keyed by team name", func() {
			g, err := prediction.Normalize(model.RawGuess{"CAN": "2", "USA": float64(4)}, home, away)

			Convey("Then the team names map to home and away", func() {
				So(err, ShouldBeNil)
				So(g.Home, ShouldEqual, 2)
				So(g.Away, ShouldEqual, 4)
				So(g.Shape, ShouldEqual, prediction.ShapeTeamKeyed)
			})
		})

		Convey("When both shapes are present", func() {
			g, err := prediction.Normalize(model.RawGuess{
				"homeScore": 1, "awayScore": 0,
				"CAN": 5, "USA": 5,
			}, home, away)

			Convey("Then the role keys win", func() {
				So(err, ShouldBeNil)
				So(g.Home, ShouldEqual, 1)
				So(g.Away, ShouldEqual, 0)
			})
		})

		Convey("When a role key is present but broken", func() {
			_, err := prediction.Normalize(model.RawGuess{"homeScore": "x", "CAN": 1, "USA": 1}, home, away)

			Convey("Then the guess is rejected without falling back", func() {
				So(errors.Is(err, prediction.ErrRejected), ShouldBeTrue)
			})
		})

		Convey("When values are missing", func() {
			for _, raw := range []model.RawGuess{
				nil,
				{},
				{"homeScore": 1},
				{"CAN": 1},
				{"homeScore": nil, "awayScore": 1},
				{"homeScore": " ", "awayScore": 1},
				{"SWE": 1, "FIN": 2},
			} {
				_, err := prediction.Normalize(raw, home, away)
				So(errors.Is(err, prediction.ErrMissingScore), ShouldBeTrue)
				So(errors.Is(err, prediction.ErrRejected), ShouldBeTrue)
			}
		})

		Convey("When values are not non-negative integers", func() {
			for _, v := range []any{-1, "-1", 1.5, "1.5", "two", true, []any{1}} {
				_, err := prediction.Normalize(model.RawGuess{"homeScore": v, "awayScore": 0}, home, away)
				So(errors.Is(err, prediction.ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(err, prediction.ErrRejected), ShouldBeTrue)
			}
		})

		Convey("When values come from a JSON decoder using json.Number", func() {
			g, err := prediction.Normalize(model.RawGuess{"homeScore": json.Number("0"), "awayScore": json.Number("2")}, home, away)
			So(err, ShouldBeNil)
			So(g.Home, ShouldEqual, 0)
			So(g.Away, ShouldEqual, 2)
		})
	})
}

func TestDetect(t *testing.T) {
	Convey("Given raw guesses of each shape", t, func() {
		So(prediction.Detect(model.RawGuess{"awayScore": 1}, "A", "B"), ShouldEqual, prediction.ShapeRoleKeyed)
		So(prediction.Detect(model.RawGuess{"B": 1}, "A", "B"), ShouldEqual, prediction.ShapeTeamKeyed)
		So(prediction.Detect(model.RawGuess{"C": 1}, "A", "B"), ShouldEqual, prediction.ShapeUnknown)
		So(prediction.Detect(nil, "A", "B"), ShouldEqual, prediction.ShapeUnknown)
		So(prediction.ShapeTeamKeyed.String(), ShouldEqual, "team-keyed")
	})
}
