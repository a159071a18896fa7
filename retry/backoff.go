// Package retry provides the exponential backoff strategy used when a
// receipt confirmation fails against the delivery store.
package retry

import (
	"math"
	"time"
)

// Strategy defines the backoff behavior for retried receipt confirmations.
//
// The schedule follows: delay = min(BaseDelay * ExponentialBase^attempt, MaxDelay).
// Marking a record received is idempotent, so retrying a confirmation that
// may or may not have landed is always safe.
type Strategy struct {
	MaxAttempts     int           // Give up after this many attempts
	BaseDelay       time.Duration // Delay before the first retry
	MaxDelay        time.Duration // Cap on the computed delay
	ExponentialBase float64       // Backoff multiplier (e.g. 2.0 for doubling)
}

// DefaultStrategy returns the default confirmation retry strategy:
// 5 attempts, 1s -> 30s doubling backoff.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
	}
}

// CalculateRetryDelay returns the delay before the given retry attempt.
// Attempt numbers at or below zero yield BaseDelay.
func (s Strategy) CalculateRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(attemptNumber))
	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}
	return time.Duration(delay)
}

// IsRetryable reports whether another attempt is allowed.
func (s Strategy) IsRetryable(attemptCount int) bool {
	return attemptCount < s.MaxAttempts
}
