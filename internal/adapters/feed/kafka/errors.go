package kafka

import "errors"

var (
	// ErrInvalidMessage is returned for payloads that are not a feed message.
	ErrInvalidMessage = errors.New("invalid feed message")
	// ErrUnknownType is returned for messages with an unsupported type.
	ErrUnknownType = errors.New("unknown feed message type")
)
