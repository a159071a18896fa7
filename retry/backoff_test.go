package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStrategy(t *testing.T) {
	s := DefaultStrategy()

	assert.Equal(t, 5, s.MaxAttempts)
	assert.Equal(t, time.Second, s.BaseDelay)
	assert.Equal(t, 30*time.Second, s.MaxDelay)
	assert.Equal(t, 2.0, s.ExponentialBase)
}

func TestStrategy_CalculateRetryDelay(t *testing.T) {
	s := Strategy{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		ExponentialBase: 2.0,
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{"zero attempt", 0, time.Second},
		{"negative attempt", -1, time.Second},
		{"first retry", 1, 2 * time.Second},
		{"second retry", 2, 4 * time.Second},
		{"third retry", 3, 8 * time.Second},
		{"capped at max", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CalculateRetryDelay(tt.attempt))
		})
	}
}

func TestStrategy_IsRetryable(t *testing.T) {
	s := Strategy{MaxAttempts: 3}

	assert.True(t, s.IsRetryable(0))
	assert.True(t, s.IsRetryable(2))
	assert.False(t, s.IsRetryable(3))
	assert.False(t, s.IsRetryable(10))
}
