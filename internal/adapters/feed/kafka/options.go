package kafka

import (
	"time"

	"github.com/okian/scoreline/pkg/logger"
)

// Option configures a Consumer.
type Option func(*Consumer)

// WithLogger sets the consumer logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry sets how often a message hitting backpressure is retried and
// the pause between attempts.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Consumer) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if backoff >= 0 {
			c.backoff = backoff
		}
	}
}
