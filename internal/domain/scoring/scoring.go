// Package scoring converts a predicted score line and a final score line into
// prediction points.
package scoring

import (
	"fmt"
	"strings"
)

// Point values of the scoring table.
const (
	ExactDecisivePoints = 10
	ExactDrawPoints     = 20
	drawPenaltyFactor   = 2
)

// Outcome is the category of a score line.
type Outcome int

// Outcome categories.
const (
	HomeWin Outcome = iota
	AwayWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home-win"
	case AwayWin:
		return "away-win"
	default:
		return "draw"
	}
}

// OutcomeOf derives the outcome category of a score line.
func OutcomeOf(home, away int) Outcome {
	switch {
	case home > away:
		return HomeWin
	case home < away:
		return AwayWin
	default:
		return Draw
	}
}

// Policy names a point system.
type Policy string

// Known policies. DrawWeighted doubles the value of correctly predicted
// draws; Flat scores every outcome on the same ten point scale.
const (
	DrawWeighted Policy = "draw-weighted"
	Flat         Policy = "flat"
)

// DefaultPolicy is used when no policy is configured.
const DefaultPolicy = DrawWeighted

// ParsePolicy resolves a configured policy name. The empty string maps to
// DefaultPolicy.
func ParsePolicy(name string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultPolicy, nil
	case DrawWeighted:
		return DrawWeighted, nil
	case Flat:
		return Flat, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// Points scores a prediction under the policy. Inputs must already be
// validated non-negative integers.
func (p Policy) Points(predHome, predAway, actHome, actAway int) int {
	outcome := OutcomeOf(predHome, predAway)
	if outcome != OutcomeOf(actHome, actAway) {
		return 0
	}

	weighted := outcome == Draw && p != Flat
	if predHome == actHome && predAway == actAway {
		if weighted {
			return ExactDrawPoints
		}
		return ExactDecisivePoints
	}

	diff := abs(predHome-actHome) + abs(predAway-actAway)
	if weighted {
		return max(0, ExactDrawPoints-drawPenaltyFactor*diff)
	}
	return max(0, ExactDecisivePoints-diff)
}

// Points scores a prediction under DefaultPolicy.
func Points(predHome, predAway, actHome, actAway int) int {
	return DefaultPolicy.Points(predHome, predAway, actHome, actAway)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
