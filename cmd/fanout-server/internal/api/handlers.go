// Package api provides HTTP handlers for the fanout server REST API.
//
// This layer is a thin I/O adapter: request parsing, URL-format validation,
// and translating engine results into transport status codes. All delivery
// invariants live in the fanout package.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coregx/fanout"
	"github.com/coregx/fanout/model"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	registry      *fanout.Registry
	broker        *fanout.Broker
	logger        fanout.Logger
	notifications fanout.NotificationService
}

// NewHandler creates a new API handler.
func NewHandler(
	registry *fanout.Registry,
	broker *fanout.Broker,
	logger fanout.Logger,
	notifications fanout.NotificationService,
) *Handler {
	return &Handler{
		registry:      registry,
		broker:        broker,
		logger:        logger,
		notifications: notifications,
	}
}

// HandleSubscribe handles POST /api/v1/subscribe
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), fanout.ErrCodeValidation)
		return
	}

	if !h.registry.Subscribe(req.Topic, req.Endpoint) {
		h.respondError(w, http.StatusBadRequest, "topic and endpoint must be non-empty", fanout.ErrCodeValidation)
		return
	}

	if err := h.notifications.NotifySubscriptionCreated(r.Context(), req.Topic, req.Endpoint); err != nil {
		h.logger.Warnf("failed to send subscription notification: %v", err)
	}

	h.respondSuccess(w, http.StatusCreated, nil, "Subscription created successfully")
}

// HandleSubscribers handles GET /api/v1/subscribers?topic=
func (h *Handler) HandleSubscribers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		h.respondError(w, http.StatusBadRequest, "topic query parameter is required", fanout.ErrCodeValidation)
		return
	}

	subscribers := h.registry.Subscribers(topic)
	if len(subscribers) == 0 {
		h.respondError(w, http.StatusNotFound,
			"Topic either does not exist or has no subscribed endpoints", fanout.ErrCodeNoData)
		return
	}

	h.respondSuccess(w, http.StatusOK, SubscribersResponse{Topic: topic, Subscribers: subscribers}, "")
}

// HandlePublish handles POST /api/v1/publish
//
// The handler resolves the topic's subscriber list from the registry and
// hands it to the broker, which owns the fan-out and queue bookkeeping.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if err := req.Validate(); err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), fanout.ErrCodeValidation)
		return
	}

	subscribers := h.registry.Subscribers(req.Topic)
	if len(subscribers) == 0 {
		h.respondError(w, http.StatusNotFound,
			"Topic either does not exist or has no subscribed endpoints", fanout.ErrCodeNoData)
		return
	}

	failed, err := h.broker.Publish(r.Context(), req.Topic, subscribers, model.NewMessage(req.Data))
	if err != nil {
		if errors.Is(err, fanout.ErrBrokerPaused) {
			h.respondError(w, http.StatusServiceUnavailable, "Broker is paused", fanout.ErrCodeUnavailable)
			return
		}
		if fanout.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error(), fanout.ErrCodeValidation)
			return
		}
		h.logger.Errorf("failed to publish message: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to publish message", "PUBLISH_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, PublishResponse{FailedSubscribers: failed}, "Message published")
}

// HandleMessages handles GET /api/v1/messages?subscriber=
//
// The subscriber identity is caller-supplied and unauthenticated: any
// caller naming a subscriber can drain its queue. Known gap inherited from
// the reference design; front this endpoint with an authorization layer
// before exposing it.
func (h *Handler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	subscriber := r.URL.Query().Get("subscriber")
	if subscriber == "" {
		h.respondError(w, http.StatusBadRequest, "subscriber query parameter is required", fanout.ErrCodeValidation)
		return
	}

	messages, err := h.broker.RetrieveMessages(r.Context(), subscriber)
	if err != nil {
		if fanout.IsValidation(err) {
			h.respondError(w, http.StatusBadRequest, err.Error(), fanout.ErrCodeValidation)
			return
		}
		h.logger.Errorf("failed to retrieve messages: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve messages", "RETRIEVE_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, MessagesResponse{Messages: messages}, "")
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	h.respondSuccess(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"accepting": h.broker.Accepting(),
	}, "")
}

// HandleToggle handles POST /api/v1/toggle - pauses or resumes publishing.
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	if h.broker.Accepting() {
		h.broker.Pause()
	} else {
		h.broker.Resume()
	}

	h.respondSuccess(w, http.StatusOK, map[string]any{
		"accepting": h.broker.Accepting(),
	}, "Broker toggled")
}

// respondError writes an error response as JSON.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		h.logger.Errorf("failed to encode error response: %v", err)
	}
}

// respondSuccess writes a success response as JSON.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data, Message: message}); err != nil {
		h.logger.Errorf("failed to encode response: %v", err)
	}
}
