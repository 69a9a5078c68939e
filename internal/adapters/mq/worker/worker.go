// Package worker drains the recompute queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/pkg/logger"
	"github.com/okian/scoreline/pkg/metrics"
)

const defaultShutdownTimeout = 30 * time.Second

// Handler recomputes the standings for one trigger.
type Handler interface {
	Recompute(ctx context.Context, t model.Trigger) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t model.Trigger) error

// Recompute calls f.
func (f HandlerFunc) Recompute(ctx context.Context, t model.Trigger) error { return f(ctx, t) }

// Queue hands triggers to workers. The channel closes once the queue is
// closed and drained.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Trigger
}

// Stats summarises what a pool has processed.
type Stats struct {
	Workers     int    `json:"workers"`
	Active      int64  `json:"active"`
	Handled     int64  `json:"handled"`
	Failed      int64  `json:"failed"`
	LastVersion uint64 `json:"lastVersion"`
}

// counters are shared by the workers of one pool.
type counters struct {
	active  atomic.Int64
	handled atomic.Int64
	failed  atomic.Int64
	version atomic.Uint64 // highest trigger version handed to the handler
}

func (c *counters) observeVersion(v uint64) {
	for {
		cur := c.version.Load()
		if v <= cur || c.version.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Worker feeds triggers from a queue to a Handler one at a time.
type Worker struct {
	queue   Queue
	handler Handler
	name    string
	stats   *counters

	stop chan struct{}
	done chan struct{}

	logger logger.Logger
}

// New creates a worker reading from queue.
func New(queue Queue, handler Handler, opts ...Option) *Worker {
	w := &Worker{
		queue:   queue,
		handler: handler,
		name:    "worker",
		stats:   new(counters),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run handles triggers until ctx is done, Shutdown is called or the queue
// is closed and drained. Handler errors are logged and do not stop the
// worker; the next trigger retries the recompute.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}
			w.handle(ctx, t)
		}
	}
}

// Shutdown stops the worker after the trigger in hand and waits for it.
// Calling it again is a no-op.
func (w *Worker) Shutdown(ctx context.Context) error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s did not stop: %w", w.name, ctx.Err())
	}
}

func (w *Worker) handle(ctx context.Context, t model.Trigger) {
	start := time.Now()
	metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(1)))
	w.stats.observeVersion(t.Version)

	err := w.handler.Recompute(ctx, t)

	metrics.UpdateWorkerActiveCount(int(w.stats.active.Add(-1)))
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	w.stats.handled.Add(1)
	if err == nil {
		return
	}
	w.stats.failed.Add(1)
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "recompute_error")
	w.logger.Error(ctx, "recompute failed",
		logger.String("trigger_id", t.ID),
		logger.String("reason", t.Reason),
		logger.Any("version", t.Version),
		logger.Error(err),
	)
}

// Pool runs several workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	stats   *counters
	timeout time.Duration
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one uses the number of
// CPUs.
func NewPool(workerCount int, queue Queue, handler Handler, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		queue:   queue,
		stats:   new(counters),
		timeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	for i := range p.workers {
		p.workers[i] = New(queue, handler,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger.Named("worker-"+strconv.Itoa(i))),
			withCounters(p.stats),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:     len(p.workers),
		Active:      p.stats.active.Load(),
		Handled:     p.stats.handled.Load(),
		Failed:      p.stats.failed.Load(),
		LastVersion: p.stats.version.Load(),
	}
}

// Start starts all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so workers drain what is pending, then waits
// for them up to the pool's shutdown timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Warn(ctx, "closing recompute queue", logger.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	stuck := 0
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			stuck++
		}
	}
	if stuck > 0 {
		p.logger.Warn(ctx, "workers still recomputing at shutdown", logger.Int("workers", stuck))
		return fmt.Errorf("%d workers did not stop: %w", stuck, ctx.Err())
	}
	st := p.Stats()
	p.logger.Debug(ctx, "worker pool drained",
		logger.Any("handled", st.Handled),
		logger.Any("failed", st.Failed),
		logger.Any("last_version", st.LastVersion),
	)
	return nil
}
