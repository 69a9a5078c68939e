package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound     = errors.New("user not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrStaleVersion = errors.New("standings version is older than the published one")
)
