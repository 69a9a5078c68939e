package model

import "errors"

// Sentinel kinds for value parsing.
var (
	ErrMissingValue = errors.New("value missing")
	ErrInvalidValue = errors.New("value is not a non-negative integer")
	ErrInvalidTime  = errors.New("unrecognized start time")
)
