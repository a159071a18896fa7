package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coregx/fanout"
	"github.com/coregx/fanout/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway fails pushes to the endpoints in down, delivers the rest.
type stubGateway struct {
	down map[string]bool
}

func (g *stubGateway) Push(_ context.Context, endpoint string, _ model.Message) error {
	if g.down[endpoint] {
		return errors.New("connection refused")
	}
	return nil
}

func newTestHandler(t *testing.T, down ...string) (*Handler, *fanout.Registry) {
	t.Helper()

	gateway := &stubGateway{down: make(map[string]bool)}
	for _, endpoint := range down {
		gateway.down[endpoint] = true
	}

	registry := fanout.NewRegistry()
	broker, err := fanout.NewBroker(
		fanout.WithTracker(fanout.NewMemoryTracker()),
		fanout.WithGateway(gateway),
		fanout.WithBrokerLogger(&fanout.NoopLogger{}),
	)
	require.NoError(t, err)

	return NewHandler(registry, broker, &fanout.NoopLogger{}, &fanout.NoOpNotificationService{}), registry
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) SuccessResponse {
	t.Helper()
	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleSubscribe(t *testing.T) {
	handler, registry := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscribe",
		strings.NewReader(`{"topic":"test-topic","endpoint":"http://localhost:8000/testing"}`))
	handler.HandleSubscribe(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.ElementsMatch(t, []string{"http://localhost:8000/testing"}, registry.Subscribers("test-topic"))
}

func TestHandleSubscribe_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
	}{
		{"wrong method", http.MethodGet, `{}`, http.StatusMethodNotAllowed},
		{"invalid JSON", http.MethodPost, `{not json`, http.StatusBadRequest},
		{"missing topic", http.MethodPost, `{"endpoint":"http://localhost:8000"}`, http.StatusBadRequest},
		{"bad endpoint URL", http.MethodPost, `{"topic":"t","endpoint":"not a url"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(t)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/api/v1/subscribe", strings.NewReader(tt.body))
			handler.HandleSubscribe(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestHandleSubscribers(t *testing.T) {
	handler, registry := newTestHandler(t)
	registry.Subscribe("test-topic", "http://localhost:8000/testing")
	registry.Subscribe("test-topic", "http://localhost:9001/hook")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscribers?topic=test-topic", nil)
	handler.HandleSubscribers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var subscribers SubscribersResponse
	require.NoError(t, json.Unmarshal(data, &subscribers))
	assert.Equal(t, "test-topic", subscribers.Topic)
	assert.Len(t, subscribers.Subscribers, 2)
}

func TestHandleSubscribers_Errors(t *testing.T) {
	handler, _ := newTestHandler(t)

	// Missing topic parameter.
	rec := httptest.NewRecorder()
	handler.HandleSubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscribers", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown topics and topics without subscribers are indistinguishable.
	rec = httptest.NewRecorder()
	handler.HandleSubscribers(rec, httptest.NewRequest(http.MethodGet, "/api/v1/subscribers?topic=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, fanout.ErrCodeNoData, decodeError(t, rec).Code)
}

func TestHandlePublish(t *testing.T) {
	handler, registry := newTestHandler(t)
	registry.Subscribe("test-topic", "http://localhost:8000/up")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish",
		strings.NewReader(`{"topic":"test-topic","data":{"message":"this is a test message"}}`))
	handler.HandlePublish(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var publish PublishResponse
	require.NoError(t, json.Unmarshal(data, &publish))
	assert.Empty(t, publish.FailedSubscribers)
}

func TestHandlePublish_ReportsFailedSubscribers(t *testing.T) {
	handler, registry := newTestHandler(t, "http://localhost:8000/down")
	registry.Subscribe("test-topic", "http://localhost:8000/up")
	registry.Subscribe("test-topic", "http://localhost:8000/down")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish",
		strings.NewReader(`{"topic":"test-topic","data":{"message":"hello"}}`))
	handler.HandlePublish(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var publish PublishResponse
	require.NoError(t, json.Unmarshal(data, &publish))
	assert.Equal(t, []string{"http://localhost:8000/down"}, publish.FailedSubscribers)
}

func TestHandlePublish_NoSubscribers(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish",
		strings.NewReader(`{"topic":"ghost","data":{"message":"hello"}}`))
	handler.HandlePublish(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePublish_BrokerPaused(t *testing.T) {
	handler, registry := newTestHandler(t)
	registry.Subscribe("test-topic", "http://localhost:8000/up")

	// Flip the toggle off.
	rec := httptest.NewRecorder()
	handler.HandleToggle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/toggle", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish",
		strings.NewReader(`{"topic":"test-topic","data":{}}`))
	handler.HandlePublish(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, fanout.ErrCodeUnavailable, decodeError(t, rec).Code)
}

func TestHandleMessages(t *testing.T) {
	handler, registry := newTestHandler(t, "http://localhost:8000/down")
	registry.Subscribe("test-topic", "http://localhost:8000/down")

	// Push fails, so the message waits in the subscriber's queue.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/publish",
		strings.NewReader(`{"topic":"test-topic","data":{"message":"hello"}}`))
	handler.HandlePublish(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/api/v1/messages?subscriber=http%3A%2F%2Flocalhost%3A8000%2Fdown", nil)
	handler.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var messages MessagesResponse
	require.NoError(t, json.Unmarshal(data, &messages))
	require.Len(t, messages.Messages, 1)
	assert.Equal(t, "test-topic", messages.Messages[0].Topic())
}

func TestHandleMessages_MissingSubscriber(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleMessages(rec, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMessages_EmptyQueue(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages?subscriber=nobody", nil)
	handler.HandleMessages(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var messages MessagesResponse
	require.NoError(t, json.Unmarshal(data, &messages))
	assert.Empty(t, messages.Messages)
}

func TestHandleHealth(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, true, data["accepting"])
}

func TestHandleToggle(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.HandleToggle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/toggle", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeSuccess(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["accepting"])

	rec = httptest.NewRecorder()
	handler.HandleToggle(rec, httptest.NewRequest(http.MethodPost, "/api/v1/toggle", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeSuccess(t, rec)
	data, ok = resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["accepting"])
}
