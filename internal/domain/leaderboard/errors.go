package leaderboard

import "errors"

// ErrUnknownProfilePolicy is returned by ParseProfilePolicy for unknown names.
var ErrUnknownProfilePolicy = errors.New("unknown profile policy")
