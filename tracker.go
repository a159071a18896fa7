package fanout

import (
	"context"

	"github.com/coregx/fanout/model"
)

// DeliveryTracker owns the record of which messages have and have not been
// received by which subscribers. It is the only component allowed to mutate
// delivery state; the broker goes through this contract for every queue
// operation.
//
// Implementations must be safe for concurrent use. Two implementations ship
// with the library: MemoryTracker (non-durable FIFO queues) and the Relica
// SQL tracker in adapters/relica (durable records with a received flag).
type DeliveryTracker interface {
	// StoreMessages upserts one delivery record per subscriber, keyed by
	// (subscriber, publishedAtUtc), with received=false. The message must
	// already be stamped. A store failure is non-recoverable for the batch
	// and must surface as a hard error - delivery bookkeeping is in an
	// unknown state for the caller at that point.
	StoreMessages(ctx context.Context, subscribers []string, msg model.Message) error

	// PollMessages returns the message payloads of all unreceived records
	// for a subscriber, ordered by ascending publishedAtUtc, consuming all
	// result pages. Returns an empty slice when nothing is queued.
	//
	// Durable implementations leave the records unreceived; the in-memory
	// implementation pops destructively (popped and received are the same
	// event in that mode).
	PollMessages(ctx context.Context, subscriber string) ([]model.Message, error)

	// SetMessageReceived marks the record with the exact
	// (subscriber, publishedAt) key as received, using a strongly
	// consistent read so a concurrent flip is never re-applied. Confirming
	// an already-received record is an idempotent success. Returns false
	// only when the store declined the write.
	SetMessageReceived(ctx context.Context, subscriber, publishedAt string) (bool, error)

	// DiscardDelivered is called after a successful synchronous push.
	// The in-memory tracker pops the just-queued copy; durable trackers
	// treat it as a no-op, since durable records persist until explicitly
	// acknowledged and push success is only a delivery signal.
	DiscardDelivered(ctx context.Context, subscriber, publishedAt string) error
}
