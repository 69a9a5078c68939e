package service

import (
	"errors"

	"github.com/okian/scoreline/internal/adapters/source"
)

// Sentinel kinds returned by the service. The HTTP layer maps them to
// status codes.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("recompute queue is full")
	ErrReadOnly     = source.ErrReadOnly
)
