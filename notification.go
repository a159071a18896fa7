package fanout

import (
	"context"
)

// NotificationService defines an optional interface for surfacing delivery
// engine events (push failures, abandoned receipt confirmations, new
// subscriptions).
//
// Implementations might send emails, Slack messages, or feed monitoring
// systems.
type NotificationService interface {
	// NotifyPushFailure is called when a synchronous push to a subscriber
	// fails. The queued copy is retained for polling, so this is
	// informational.
	NotifyPushFailure(ctx context.Context, subscriber, publishedAt string, err error) error

	// NotifyReceiptAbandoned is called when a receipt confirmation has
	// exhausted its retries. The record stays unreceived and the message
	// will be re-surfaced on the subscriber's next poll.
	NotifyReceiptAbandoned(ctx context.Context, subscriber, publishedAt string, err error) error

	// NotifySubscriptionCreated is called when a new (topic, endpoint)
	// pair is registered.
	NotifySubscriptionCreated(ctx context.Context, topic, endpoint string) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyPushFailure does nothing.
func (n *NoOpNotificationService) NotifyPushFailure(_ context.Context, _, _ string, _ error) error {
	return nil
}

// NotifyReceiptAbandoned does nothing.
func (n *NoOpNotificationService) NotifyReceiptAbandoned(_ context.Context, _, _ string, _ error) error {
	return nil
}

// NotifySubscriptionCreated does nothing.
func (n *NoOpNotificationService) NotifySubscriptionCreated(_ context.Context, _, _ string) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs
// notifications.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyPushFailure logs the failed push.
func (n *LoggingNotificationService) NotifyPushFailure(_ context.Context, subscriber, publishedAt string, err error) error {
	n.logger.Warnf("push failed: subscriber=%s, publishedAt=%s, error=%v", subscriber, publishedAt, err)
	return nil
}

// NotifyReceiptAbandoned logs the abandoned confirmation.
func (n *LoggingNotificationService) NotifyReceiptAbandoned(_ context.Context, subscriber, publishedAt string, err error) error {
	n.logger.Errorf("receipt confirmation abandoned: subscriber=%s, publishedAt=%s, error=%v", subscriber, publishedAt, err)
	return nil
}

// NotifySubscriptionCreated logs the new subscription.
func (n *LoggingNotificationService) NotifySubscriptionCreated(_ context.Context, topic, endpoint string) error {
	n.logger.Infof("subscription created: topic=%s, endpoint=%s", topic, endpoint)
	return nil
}
