package fanout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coregx/fanout/model"
)

// PushGateway delivers a stamped message to a subscriber endpoint.
// This interface is the seam between the broker and the transport, enabling
// flexible delivery implementations (HTTP webhooks, gRPC, test fakes).
//
// Implementations must apply a bounded per-request timeout and return an
// error for any failed delivery (transport error, timeout, non-OK status).
type PushGateway interface {
	// Push sends the message to the endpoint synchronously.
	Push(ctx context.Context, endpoint string, msg model.Message) error
}

// HTTPGateway pushes messages as JSON POST requests to subscriber webhook
// URLs. Any 2xx response counts as delivered; everything else - including a
// timeout or connection error - is a delivery failure.
type HTTPGateway struct {
	client *http.Client
}

// NewHTTPGateway creates a gateway with the given per-request timeout.
// A non-positive timeout falls back to 10 seconds.
func NewHTTPGateway(timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		client: &http.Client{Timeout: timeout},
	}
}

// Push implements PushGateway.
func (g *HTTPGateway) Push(ctx context.Context, endpoint string, msg model.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return NewErrorWithCause(ErrCodeDelivery, "failed to encode message", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return NewErrorWithCause(ErrCodeDelivery, "failed to build push request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return NewErrorWithCause(ErrCodeDelivery, "push request failed", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return NewError(ErrCodeDelivery, fmt.Sprintf("subscriber returned status %d", resp.StatusCode))
	}
	return nil
}
