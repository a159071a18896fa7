package fanout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coregx/fanout/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPGateway(t *testing.T, timeout time.Duration) *HTTPGateway {
	t.Helper()
	gateway := NewHTTPGateway(timeout)
	t.Cleanup(gateway.client.CloseIdleConnections)
	return gateway
}

func TestHTTPGateway_PushSuccess(t *testing.T) {
	var received map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := newTestHTTPGateway(t, 5*time.Second)
	msg := stamped(t, "test-topic", time.Date(2024, 8, 4, 12, 0, 0, 0, time.UTC),
		model.Payload{"message": "this is a test message"})

	err := gateway.Push(context.Background(), server.URL, msg)
	require.NoError(t, err)

	// The subscriber sees the flattened wire shape.
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "test-topic", received[model.FieldTopic])
	assert.Equal(t, "2024-08-04T12:00:00.000000Z", received[model.FieldPublishedAt])
	assert.Equal(t, "this is a test message", received["message"])
}

func TestHTTPGateway_PushAccepts2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	gateway := newTestHTTPGateway(t, 5*time.Second)
	err := gateway.Push(context.Background(), server.URL, stamped(t, "t", time.Now(), nil))
	assert.NoError(t, err)
}

func TestHTTPGateway_PushNonOKStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"redirect", http.StatusMultipleChoices},
		{"client error", http.StatusNotFound},
		{"server error", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			gateway := newTestHTTPGateway(t, 5*time.Second)
			err := gateway.Push(context.Background(), server.URL, stamped(t, "t", time.Now(), nil))
			require.Error(t, err)

			var fanoutErr *Error
			require.ErrorAs(t, err, &fanoutErr)
			assert.Equal(t, ErrCodeDelivery, fanoutErr.Code)
		})
	}
}

func TestHTTPGateway_PushConnectionRefused(t *testing.T) {
	// Grab a port nobody is listening on.
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	gateway := newTestHTTPGateway(t, time.Second)
	err := gateway.Push(context.Background(), endpoint, stamped(t, "t", time.Now(), nil))

	var fanoutErr *Error
	require.ErrorAs(t, err, &fanoutErr)
	assert.Equal(t, ErrCodeDelivery, fanoutErr.Code)
}

func TestHTTPGateway_PushContextCanceled(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-blocked:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(blocked)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	gateway := newTestHTTPGateway(t, 10*time.Second)
	err := gateway.Push(ctx, server.URL, stamped(t, "t", time.Now(), nil))
	assert.Error(t, err)
}

func TestNewHTTPGateway_DefaultTimeout(t *testing.T) {
	gateway := NewHTTPGateway(0)
	assert.Equal(t, 10*time.Second, gateway.client.Timeout)

	gateway = NewHTTPGateway(3 * time.Second)
	assert.Equal(t, 3*time.Second, gateway.client.Timeout)
}
