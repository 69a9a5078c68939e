package source

import "errors"

// Sentinel kinds for source errors.
var (
	ErrReadOnly      = errors.New("source is read-only")
	ErrUnknownGame   = errors.New("unknown game")
	ErrInvalidRecord = errors.New("invalid record")
	ErrUnknownKind   = errors.New("unknown source kind")
)
