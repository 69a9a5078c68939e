package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/scoreline/internal/domain/model"
)

func trigger(id string) Event {
	return model.Trigger{ID: id, Reason: model.TriggerSubmission, RequestedAt: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, trigger("t1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "t1" {
		t.Errorf("expected t1, got %v", got.ID)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	tests := []struct {
		id   string
		want bool
	}{
		{"t1", true},
		{"t2", true},
		{"t3", false},
	}
	for _, tt := range tests {
		if got := q.Enqueue(ctx, trigger(tt.id)); got != tt.want {
			t.Errorf("Enqueue(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, trigger("t1")) {
		t.Error("expected enqueue to fail on a cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const producers, perProducer = 10, 100
	var consumed sync.WaitGroup
	consumed.Add(producers * perProducer)
	for i := 0; i < 4; i++ {
		go func() {
			for range q.Dequeue(ctx) {
				consumed.Done()
			}
		}()
	}

	var produced sync.WaitGroup
	for i := 0; i < producers; i++ {
		produced.Add(1)
		go func(id int) {
			defer produced.Done()
			for j := 0; j < perProducer; j++ {
				for !q.Enqueue(ctx, trigger(fmt.Sprintf("t%d_%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	produced.Wait()

	done := make(chan struct{})
	go func() {
		consumed.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumers did not drain the queue")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	q.Enqueue(ctx, trigger("t1"))
	q.Enqueue(ctx, trigger("t2"))

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if q.Enqueue(ctx, trigger("t3")) {
		t.Error("expected enqueue to fail after closing")
	}

	var drained []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
loop:
	for {
		select {
		case e, ok := <-ch:
			if !ok {
				break loop
			}
			drained = append(drained, e.ID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(drained) != 2 {
		t.Errorf("expected queued events to be delivered after close, got %v", drained)
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want uint64
	}{
		{"higher version wins", 3, 7, 7},
		{"order does not matter", 7, 3, 7},
		{"refresh forces a recompute", 0, 5, 0},
		{"refresh after a write", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := trigger("a"), trigger("b")
			a.Version, b.Version = tt.a, tt.b
			got := Merge(a, b)
			if got.Version != tt.want {
				t.Errorf("Merge(%d, %d).Version = %d, want %d", tt.a, tt.b, got.Version, tt.want)
			}
			if got.ID != "b" {
				t.Errorf("expected the later trigger's id, got %s", got.ID)
			}
		})
	}
}

func TestInMemoryQueue_Coalescing(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10), WithCoalescing(true))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for v := uint64(1); v <= 3; v++ {
		tr := trigger(fmt.Sprintf("t%d", v))
		tr.Version = v
		q.Enqueue(ctx, tr)
	}

	ch := q.Dequeue(ctx)
	select {
	case got := <-ch:
		if got.Version != 3 || got.ID != "t3" {
			t.Errorf("expected the burst to merge into t3 at version 3, got %s at %d", got.ID, got.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("no trigger delivered")
	}

	select {
	case got := <-ch:
		t.Errorf("expected nothing else pending, got %s", got.ID)
	case <-time.After(50 * time.Millisecond):
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}
