package fanout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/coregx/fanout/model"
)

// Broker orchestrates publish and retrieval. On publish it stamps the
// message, records a delivery intent for every subscriber through the
// DeliveryTracker, then attempts a synchronous push to each endpoint and
// reports the subset that failed. On retrieval it returns a subscriber's
// unreceived backlog oldest-first and arranges receipt confirmation.
//
// The broker does not own subscription data: the caller resolves the
// subscriber list (typically via Registry) and hands it to Publish. This
// keeps subscriber resolution under a separate, shorter-lived lock than the
// delivery bookkeeping.
//
// Thread safety: safe for concurrent use. No lock is ever held across
// network I/O, so publishes to disjoint subscribers and concurrent polls do
// not serialize behind a slow or unreachable peer.
type Broker struct {
	tracker       DeliveryTracker
	gateway       PushGateway
	logger        Logger
	notifications NotificationService
	receipts      *ReceiptScheduler
	ackTimeout    time.Duration

	mu        sync.Mutex
	accepting bool
}

// BrokerOption configures a Broker.
type BrokerOption func(*Broker) error

// NewBroker creates a new Broker with the provided options.
//
// Required options:
//   - WithTracker: delivery tracker (memory or durable)
//   - WithGateway: push transport
//   - WithBrokerLogger: logger instance
//
// Optional options:
//   - WithReceipts: delayed receipt confirmation after polls; without it
//     confirmations run synchronously with a bounded timeout
//   - WithBrokerNotifications: delivery event notifications
//   - WithAckTimeout: timeout for synchronous confirmations (default 5s)
//
// Example:
//
//	broker, err := fanout.NewBroker(
//	    fanout.WithTracker(fanout.NewMemoryTracker()),
//	    fanout.WithGateway(fanout.NewHTTPGateway(5*time.Second)),
//	    fanout.WithBrokerLogger(logger),
//	)
func NewBroker(opts ...BrokerOption) (*Broker, error) {
	b := &Broker{
		notifications: &NoOpNotificationService{},
		ackTimeout:    5 * time.Second,
		accepting:     true,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply broker option", err)
		}
	}

	if b.tracker == nil {
		return nil, NewError(ErrCodeConfiguration, "DeliveryTracker is required (use WithTracker)")
	}
	if b.gateway == nil {
		return nil, NewError(ErrCodeConfiguration, "PushGateway is required (use WithGateway)")
	}
	if b.logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required (use WithBrokerLogger)")
	}

	return b, nil
}

// Publish fans the message out to the given subscribers.
//
// The message is stamped with the topic and one shared publishedAtUtc
// timestamp, then queued for every subscriber before any network attempt -
// a crash after the store still leaves the message recoverable by polling.
// Each subscriber then gets one synchronous push; endpoints that fail
// (transport error, timeout, non-OK status) keep their queued copy and are
// returned in the failed list. A partial delivery failure is a routine,
// recoverable outcome, not an error.
//
// Returns a hard error only for validation failures, a paused broker, or a
// delivery-store failure (at which point bookkeeping for the batch is in an
// unknown state and must not be silently swallowed).
func (b *Broker) Publish(ctx context.Context, topic string, subscribers []string, msg model.Message) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, NewError(ErrCodeValidation, "topic is required")
	}
	if len(subscribers) == 0 {
		return nil, NewError(ErrCodeValidation, "at least one subscriber is required")
	}
	if msg.IsZero() {
		return nil, NewError(ErrCodeValidation, "message is required")
	}
	if !b.Accepting() {
		return nil, ErrBrokerPaused
	}

	// One timestamp per publish call, shared by every fan-out copy.
	msg.Stamp(topic, time.Now())
	b.logger.Infof("publishing message for topic=%s to %d subscribers (publishedAt=%s)",
		topic, len(subscribers), msg.PublishedAt())

	// Queue first, push second. The store must succeed for the whole batch
	// before any push is attempted.
	if err := b.tracker.StoreMessages(ctx, subscribers, msg); err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to store delivery records", err)
	}

	failed := make([]string, 0)
	for _, subscriber := range subscribers {
		if err := b.push(ctx, subscriber, msg); err != nil {
			failed = append(failed, subscriber)
			b.logger.Errorf("push to %s failed, message retained for polling: %v", subscriber, err)
			if nerr := b.notifications.NotifyPushFailure(ctx, subscriber, msg.PublishedAt(), err); nerr != nil {
				b.logger.Warnf("failed to send push-failure notification: %v", nerr)
			}
			continue
		}

		b.logger.Debugf("message pushed to %s", subscriber)
		if err := b.tracker.DiscardDelivered(ctx, subscriber, msg.PublishedAt()); err != nil {
			// Worst case the subscriber sees the message again on a poll;
			// at-least-once allows that.
			b.logger.Warnf("failed to discard delivered copy for %s: %v", subscriber, err)
		}
	}

	return failed, nil
}

// push performs one synchronous delivery attempt.
func (b *Broker) push(ctx context.Context, subscriber string, msg model.Message) error {
	return b.gateway.Push(ctx, subscriber, msg)
}

// RetrieveMessages returns the subscriber's unreceived messages in
// ascending publishedAtUtc order and arranges their receipt confirmation.
//
// With a ReceiptScheduler configured, each message's confirmation fires
// after a grace delay; if the process stops first, the record stays
// unreceived and is returned again on the next poll (at-least-once,
// duplicates possible). Without a scheduler, confirmations run inline with
// a bounded timeout.
//
// The subscriber identity is taken on trust. There is no authorization
// layer here: any caller naming a subscriber can drain its queue, so do not
// expose this to untrusted callers directly.
func (b *Broker) RetrieveMessages(ctx context.Context, subscriberID string) ([]model.Message, error) {
	subscriberID = strings.TrimSpace(subscriberID)
	if subscriberID == "" {
		return nil, NewError(ErrCodeValidation, "subscriber is required")
	}

	messages, err := b.tracker.PollMessages(ctx, subscriberID)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeDatabase, "failed to poll delivery records", err)
	}

	for _, msg := range messages {
		b.confirmReceipt(ctx, subscriberID, msg.PublishedAt())
	}

	b.logger.Infof("retrieved %d messages for subscriber=%s", len(messages), subscriberID)
	return messages, nil
}

// confirmReceipt hands the confirmation to the scheduler, or runs it
// synchronously with a timeout when no scheduler is configured.
func (b *Broker) confirmReceipt(ctx context.Context, subscriber, publishedAt string) {
	if b.receipts != nil {
		b.receipts.Schedule(subscriber, publishedAt)
		return
	}

	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.ackTimeout)
	defer cancel()
	ok, err := b.tracker.SetMessageReceived(ackCtx, subscriber, publishedAt)
	if err != nil || !ok {
		b.logger.Errorf("receipt confirmation failed for subscriber=%s publishedAt=%s (ok=%t): %v",
			subscriber, publishedAt, ok, err)
	}
}

// Pause stops the broker from accepting new publishes. Retrieval stays
// available so subscribers can drain their backlogs.
func (b *Broker) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accepting = false
}

// Resume re-enables publishing.
func (b *Broker) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accepting = true
}

// Accepting reports whether the broker currently accepts publishes.
func (b *Broker) Accepting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accepting
}
