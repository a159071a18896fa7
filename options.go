package fanout

import "time"

// WithTracker sets the delivery tracker the broker queues through.
// Required.
func WithTracker(tracker DeliveryTracker) BrokerOption {
	return func(b *Broker) error {
		if tracker == nil {
			return NewError(ErrCodeConfiguration, "tracker cannot be nil")
		}
		b.tracker = tracker
		return nil
	}
}

// WithGateway sets the push transport used for synchronous delivery.
// Required.
func WithGateway(gateway PushGateway) BrokerOption {
	return func(b *Broker) error {
		if gateway == nil {
			return NewError(ErrCodeConfiguration, "gateway cannot be nil")
		}
		b.gateway = gateway
		return nil
	}
}

// WithBrokerLogger sets the logger instance. Required.
//
// Use NoopLogger for silent operation or implement Logger to integrate
// with your logging system (zap, logrus, etc.).
func WithBrokerLogger(logger Logger) BrokerOption {
	return func(b *Broker) error {
		if logger == nil {
			return NewError(ErrCodeConfiguration, "logger cannot be nil")
		}
		b.logger = logger
		return nil
	}
}

// WithReceipts sets the scheduler that defers receipt confirmations after
// polls. Optional: without it, confirmations run synchronously with the
// ack timeout.
//
// The scheduler must share the broker's tracker and be running (see
// ReceiptScheduler.Run) for confirmations to fire.
func WithReceipts(scheduler *ReceiptScheduler) BrokerOption {
	return func(b *Broker) error {
		if scheduler == nil {
			return NewError(ErrCodeConfiguration, "receipt scheduler cannot be nil")
		}
		b.receipts = scheduler
		return nil
	}
}

// WithBrokerNotifications sets an optional notification service receiving
// push-failure callbacks. Defaults to NoOpNotificationService.
func WithBrokerNotifications(service NotificationService) BrokerOption {
	return func(b *Broker) error {
		if service == nil {
			return NewError(ErrCodeConfiguration, "notification service cannot be nil")
		}
		b.notifications = service
		return nil
	}
}

// WithAckTimeout bounds synchronous receipt confirmations (used only when
// no ReceiptScheduler is configured). Default 5s.
func WithAckTimeout(timeout time.Duration) BrokerOption {
	return func(b *Broker) error {
		if timeout <= 0 {
			return NewError(ErrCodeConfiguration, "ack timeout must be > 0")
		}
		b.ackTimeout = timeout
		return nil
	}
}
