package fanout

import (
	"context"
	"sync"

	"github.com/coregx/fanout/model"
)

// MemoryTracker is the non-durable DeliveryTracker used when no database is
// configured. It keeps one FIFO queue per subscriber; entries leave the
// queue the instant they are popped, so "popped" and "received" are the
// same event in this mode.
//
// The mutex is scoped to map and slice mutation only - it is never held
// across I/O, so the broker's network pushes cannot serialize unrelated
// publishes or polls behind a slow peer.
type MemoryTracker struct {
	mu     sync.Mutex
	queues map[string][]model.Message
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		queues: make(map[string][]model.Message),
	}
}

// StoreMessages appends the stamped message to every subscriber's queue
// under a single critical section, creating queues as needed.
func (t *MemoryTracker) StoreMessages(_ context.Context, subscribers []string, msg model.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, subscriber := range subscribers {
		t.queues[subscriber] = append(t.queues[subscriber], msg)
	}
	return nil
}

// PollMessages pops and returns the subscriber's entire queue, oldest
// first. This is a destructive read: retrieval and receipt are the same
// event for the in-memory tracker.
func (t *MemoryTracker) PollMessages(_ context.Context, subscriber string) ([]model.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := t.queues[subscriber]
	if len(queue) == 0 {
		return []model.Message{}, nil
	}
	delete(t.queues, subscriber)
	return queue, nil
}

// SetMessageReceived is an idempotent success: the queue copy was already
// removed when it was polled.
func (t *MemoryTracker) SetMessageReceived(_ context.Context, _, _ string) (bool, error) {
	return true, nil
}

// DiscardDelivered pops the oldest queued copy for the subscriber after a
// successful synchronous push.
func (t *MemoryTracker) DiscardDelivered(_ context.Context, subscriber, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	queue := t.queues[subscriber]
	if len(queue) == 0 {
		return nil
	}
	if len(queue) == 1 {
		delete(t.queues, subscriber)
		return nil
	}
	t.queues[subscriber] = queue[1:]
	return nil
}

// QueueLength reports how many messages are queued for a subscriber.
func (t *MemoryTracker) QueueLength(subscriber string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queues[subscriber])
}
