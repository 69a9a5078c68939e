package scoring_test

import (
	"errors"
	"testing"

	scoring "github.com/okian/scoreline/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPoints(t *testing.T) {
	Convey("Given the draw-weighted point system", t, func() {
		Convey("When a decisive score is predicted exactly", func() {
			Convey("Then it is worth ten points", func() {
				for _, c := range [][2]int{{1, 0}, {0, 1}, {5, 2}, {2, 7}} {
					So(scoring.Points(c[0], c[1], c[0], c[1]), ShouldEqual, 10)
				}
			})
		})

		Convey("When a draw is predicted exactly", func() {
			Convey("Then it is worth twenty points", func() {
				So(scoring.Points(2, 2, 2, 2), ShouldEqual, 20)
				So(scoring.Points(0, 0, 0, 0), ShouldEqual, 20)
			})
		})

		Convey("When the outcome category is wrong", func() {
			Convey("Then no points are awarded regardless of proximity", func() {
				So(scoring.Points(2, 1, 1, 2), ShouldEqual, 0)
				So(scoring.Points(1, 1, 1, 0), ShouldEqual, 0)
				So(scoring.Points(1, 0, 1, 1), ShouldEqual, 0)
				So(scoring.Points(0, 1, 1, 0), ShouldEqual, 0)
			})
		})

		Convey("When the winner is right but the score is not", func() {
			Convey("Then one point is lost per goal of difference", func() {
				So(scoring.Points(2, 1, 3, 1), ShouldEqual, 9)
				So(scoring.Points(3, 1, 1, 0), ShouldEqual, 7)
				So(scoring.Points(1, 3, 0, 1), ShouldEqual, 7)
			})

			Convey("And the score never goes below zero", func() {
				So(scoring.Points(15, 0, 1, 0), ShouldEqual, 0)
			})
		})

		Convey("When a draw is right but the score is not", func() {
			Convey("Then two points are lost per goal of difference", func() {
				So(scoring.Points(1, 1, 2, 2), ShouldEqual, 16)
				So(scoring.Points(0, 0, 3, 3), ShouldEqual, 8)
				So(scoring.Points(0, 0, 9, 9), ShouldEqual, 0)
			})
		})
	})

	Convey("Given the flat point system", t, func() {
		p := scoring.Flat

		Convey("Then an exact draw is worth ten points", func() {
			So(p.Points(2, 2, 2, 2), ShouldEqual, 10)
		})

		Convey("And an inexact draw loses one point per goal", func() {
			So(p.Points(1, 1, 2, 2), ShouldEqual, 8)
		})

		Convey("And decisive predictions score as in the weighted system", func() {
			So(p.Points(2, 1, 2, 1), ShouldEqual, 10)
			So(p.Points(2, 1, 3, 1), ShouldEqual, 9)
			So(p.Points(2, 1, 1, 2), ShouldEqual, 0)
		})
	})
}

func TestPointsBounds(t *testing.T) {
	Convey("Given every small score combination", t, func() {
		Convey("Then points stay within the table for both policies", func() {
			for _, p := range []scoring.Policy{scoring.DrawWeighted, scoring.Flat} {
				for ph := 0; ph <= 6; ph++ {
					for pa := 0; pa <= 6; pa++ {
						for ah := 0; ah <= 6; ah++ {
							for aa := 0; aa <= 6; aa++ {
								pts := p.Points(ph, pa, ah, aa)
								So(pts, ShouldBeGreaterThanOrEqualTo, 0)
								So(pts, ShouldBeLessThanOrEqualTo, scoring.ExactDrawPoints)
								if scoring.OutcomeOf(ph, pa) != scoring.OutcomeOf(ah, aa) {
									So(pts, ShouldEqual, 0)
								}
							}
						}
					}
				}
			}
		})
	})
}

func TestOutcomeOf(t *testing.T) {
	Convey("Given score lines", t, func() {
		So(scoring.OutcomeOf(3, 1), ShouldEqual, scoring.HomeWin)
		So(scoring.OutcomeOf(0, 2), ShouldEqual, scoring.AwayWin)
		So(scoring.OutcomeOf(1, 1), ShouldEqual, scoring.Draw)
		So(scoring.Draw.String(), ShouldEqual, "draw")
		So(scoring.HomeWin.String(), ShouldEqual, "home-win")
	})
}

func TestParsePolicy(t *testing.T) {
	Convey("Given policy names", t, func() {
		Convey("Known names resolve", func() {
			p, err := scoring.ParsePolicy("flat")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, scoring.Flat)

			p, err = scoring.ParsePolicy(" Draw-Weighted ")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, scoring.DrawWeighted)
		})

		Convey("The empty name selects the default", func() {
			p, err := scoring.ParsePolicy("")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, scoring.DefaultPolicy)
		})

		Convey("Unknown names fail", func() {
			_, err := scoring.ParsePolicy("double-or-nothing")
			So(errors.Is(err, scoring.ErrUnknownPolicy), ShouldBeTrue)
		})
	})
}
