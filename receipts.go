package fanout

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/fanout/retry"
)

// receiptJob is one pending confirmation for a (subscriber, publishedAt) key.
type receiptJob struct {
	subscriber  string
	publishedAt string
	attempt     int
	due         time.Time
}

// ReceiptScheduler confirms message receipts against the delivery tracker
// after a fixed grace delay. Each message returned by a poll schedules one
// job; a bounded pool of workers waits out the delay and flips the durable
// record to received.
//
// The grace delay exists because the transport that carried the poll
// response may itself be unreliable - confirming immediately could mark a
// message received that the subscriber never saw. If the process stops
// before a job fires, the record stays unreceived and the message is simply
// returned again on the next poll.
//
// Failed confirmations are retried with exponential backoff; once retries
// are exhausted the job is abandoned and reported through the
// NotificationService. Abandonment is safe for the same reason: the record
// stays unreceived.
//
// Thread safety: Schedule may be called concurrently with Run.
type ReceiptScheduler struct {
	tracker       DeliveryTracker
	logger        Logger
	notifications NotificationService
	strategy      retry.Strategy
	delay         time.Duration
	workers       int
	jobs          chan receiptJob
}

// ReceiptOption configures a ReceiptScheduler.
type ReceiptOption func(*ReceiptScheduler) error

// NewReceiptScheduler creates a scheduler confirming receipts against the
// given tracker.
//
// Defaults: 30s grace delay, 4 workers, 1024 queued jobs,
// retry.DefaultStrategy, no notifications.
func NewReceiptScheduler(tracker DeliveryTracker, logger Logger, opts ...ReceiptOption) (*ReceiptScheduler, error) {
	if tracker == nil {
		return nil, NewError(ErrCodeConfiguration, "DeliveryTracker is required")
	}
	if logger == nil {
		return nil, NewError(ErrCodeConfiguration, "Logger is required")
	}

	s := &ReceiptScheduler{
		tracker:       tracker,
		logger:        logger,
		notifications: &NoOpNotificationService{},
		strategy:      retry.DefaultStrategy(),
		delay:         30 * time.Second,
		workers:       4,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply receipt option", err)
		}
	}

	s.jobs = make(chan receiptJob, 1024)
	return s, nil
}

// WithReceiptDelay sets the grace delay between a poll returning a message
// and its confirmation firing.
func WithReceiptDelay(delay time.Duration) ReceiptOption {
	return func(s *ReceiptScheduler) error {
		if delay < 0 {
			return NewError(ErrCodeConfiguration, "receipt delay cannot be negative")
		}
		s.delay = delay
		return nil
	}
}

// WithReceiptWorkers sets the confirmation worker count.
func WithReceiptWorkers(n int) ReceiptOption {
	return func(s *ReceiptScheduler) error {
		if n <= 0 {
			return NewError(ErrCodeConfiguration, "worker count must be > 0")
		}
		s.workers = n
		return nil
	}
}

// WithReceiptRetryStrategy sets the backoff applied to failed confirmations.
func WithReceiptRetryStrategy(strategy retry.Strategy) ReceiptOption {
	return func(s *ReceiptScheduler) error {
		s.strategy = strategy
		return nil
	}
}

// WithReceiptNotifications sets the notification service for abandoned
// confirmations.
func WithReceiptNotifications(service NotificationService) ReceiptOption {
	return func(s *ReceiptScheduler) error {
		if service == nil {
			return NewError(ErrCodeConfiguration, "notification service cannot be nil")
		}
		s.notifications = service
		return nil
	}
}

// Schedule enqueues a delayed confirmation for the given key.
// Never blocks: when the job queue is full the job is dropped with a
// warning, leaving the record unreceived so the message is redelivered on
// the next poll.
func (s *ReceiptScheduler) Schedule(subscriber, publishedAt string) {
	job := receiptJob{
		subscriber:  subscriber,
		publishedAt: publishedAt,
		attempt:     0,
		due:         time.Now().Add(s.delay),
	}
	select {
	case s.jobs <- job:
	default:
		s.logger.Warnf("receipt queue full, dropping confirmation for subscriber=%s publishedAt=%s",
			subscriber, publishedAt)
	}
}

// Run starts the confirmation workers and blocks until the context is
// canceled. Jobs still queued or waiting out their delay at cancellation
// are dropped; their records stay unreceived.
//
// Typically run in a goroutine:
//
//	go scheduler.Run(ctx)
func (s *ReceiptScheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(s.workers)
	for i := 0; i < s.workers; i++ {
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	s.logger.Info("receipt scheduler started")
	<-ctx.Done()
	wg.Wait()
	s.logger.Info("receipt scheduler stopped")
}

func (s *ReceiptScheduler) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			if !s.waitUntilDue(ctx, job.due) {
				return
			}
			s.confirm(ctx, job)
		}
	}
}

// waitUntilDue sleeps until the job is due. Returns false if the context
// was canceled first.
func (s *ReceiptScheduler) waitUntilDue(ctx context.Context, due time.Time) bool {
	wait := time.Until(due)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// confirm flips the record to received, retrying with backoff on failure.
func (s *ReceiptScheduler) confirm(ctx context.Context, job receiptJob) {
	ok, err := s.tracker.SetMessageReceived(ctx, job.subscriber, job.publishedAt)
	if err == nil && ok {
		s.logger.Debugf("receipt confirmed: subscriber=%s publishedAt=%s attempt=%d",
			job.subscriber, job.publishedAt, job.attempt+1)
		return
	}
	if err == nil {
		err = NewError(ErrCodeDatabase, "delivery store declined the receipt update")
	}

	job.attempt++
	if !s.strategy.IsRetryable(job.attempt) {
		s.logger.Errorf("receipt confirmation abandoned after %d attempts: subscriber=%s publishedAt=%s: %v",
			job.attempt, job.subscriber, job.publishedAt, err)
		if nerr := s.notifications.NotifyReceiptAbandoned(ctx, job.subscriber, job.publishedAt, err); nerr != nil {
			s.logger.Warnf("failed to send receipt-abandoned notification: %v", nerr)
		}
		return
	}

	job.due = time.Now().Add(s.strategy.CalculateRetryDelay(job.attempt))
	s.logger.Warnf("receipt confirmation failed (attempt %d), retrying: subscriber=%s publishedAt=%s: %v",
		job.attempt, job.subscriber, job.publishedAt, err)

	select {
	case s.jobs <- job:
	default:
		// Queue full: abandon rather than block a worker. The record
		// stays unreceived, so the message is redelivered on next poll.
		s.logger.Errorf("receipt queue full, abandoning retry for subscriber=%s publishedAt=%s",
			job.subscriber, job.publishedAt)
	}
}
