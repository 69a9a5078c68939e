package worker

import (
	"time"

	"github.com/okian/scoreline/pkg/logger"
)

// Option configures a Worker.
type Option func(*Worker)

// WithName names the worker in logs and errors.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

func withCounters(c *counters) Option {
	return func(w *Worker) { w.stats = c }
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithShutdownTimeout bounds how long Shutdown waits for the workers.
func WithShutdownTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPoolLogger sets the pool logger; workers log through children of it.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
