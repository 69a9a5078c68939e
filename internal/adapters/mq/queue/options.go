package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of pending triggers; Enqueue fails past it.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithCoalescing merges triggers that are pending together into one.
func WithCoalescing(enabled bool) Option {
	return func(q *InMemoryQueue) { q.coalesce = enabled }
}
