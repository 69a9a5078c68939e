// Package queue buffers recompute triggers between writers and the worker
// pool.
package queue

import (
	"context"
	"sync"

	"github.com/okian/scoreline/internal/domain/model"
	"github.com/okian/scoreline/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Event is the payload flowing through the queue.
type Event = model.Trigger

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a trigger. It returns false when the queue is full or
	// closed, or ctx is done.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel of triggers. The channel is closed once the
	// queue is closed and drained, or when ctx is done.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the number of pending triggers.
	Len(ctx context.Context) int

	// Close stops accepting triggers. Pending ones are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue is a bounded Queue backed by a buffered channel.
type InMemoryQueue struct {
	pending  chan Event
	capacity int
	coalesce bool

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.pending = make(chan Event, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

// Enqueue adds t without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	reason := ""
	switch {
	case q.closed:
		reason = "closed"
	case ctx.Err() != nil:
		reason = "context_cancelled"
	default:
		select {
		case q.pending <- t:
			metrics.RecordQueueEnqueue()
			q.observe()
			return true
		default:
			reason = "queue_full"
		}
	}
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
	return false
}

// Dequeue starts a reader delivering triggers on the returned channel. With
// coalescing enabled, triggers already pending when one is taken are merged
// into it, so a burst of writes costs one recompute.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			var t Event
			select {
			case <-ctx.Done():
				return
			case next, ok := <-q.pending:
				if !ok {
					return
				}
				t = next
			}
			if q.coalesce {
				t = q.mergePending(t)
			}

			select {
			case out <- t:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// mergePending folds every trigger pending right now into t.
func (q *InMemoryQueue) mergePending(t Event) Event {
	merged := 0
	for {
		select {
		case next, ok := <-q.pending:
			if !ok {
				metrics.RecordQueueCoalesced(merged)
				return t
			}
			t = Merge(t, next)
			merged++
		default:
			metrics.RecordQueueCoalesced(merged)
			return t
		}
	}
}

// Merge combines two triggers into one that is satisfied only when both
// are. A zero version means "always recompute", so it wins; otherwise the
// higher version does. The later trigger provides id, reason and time.
func Merge(a, b Event) Event {
	out := b
	switch {
	case a.Version == 0 || b.Version == 0:
		out.Version = 0
	case a.Version > b.Version:
		out.Version = a.Version
	}
	return out
}

// Len returns the number of pending triggers.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.pending)
}

func (q *InMemoryQueue) observe() {
	n := len(q.pending)
	metrics.UpdateQueueSize(n)
	metrics.UpdateQueueUtilization(float64(n) / float64(q.capacity))
}

// Close stops the queue. Calling it again is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.pending)
	}
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
