package api

import (
	"regexp"

	"github.com/coregx/fanout/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// localhostURL matches http[s]://localhost[:PORT][/PATH] endpoints, which
// the general URL rule rejects for lacking a dotted host. Local endpoints
// are common in development and test setups.
var localhostURL = regexp.MustCompile(`^https?://localhost(:[0-9]+)?(/.*)?$`)

// endpointURL validates a subscriber endpoint: any well-formed URL, or a
// localhost URL.
func endpointURL(value interface{}) error {
	s, _ := value.(string)
	if localhostURL.MatchString(s) {
		return nil
	}
	return validation.Validate(s, is.URL)
}

// SubscribeRequest represents a subscription creation request.
type SubscribeRequest struct {
	Topic    string `json:"topic"`
	Endpoint string `json:"endpoint"`
}

// Validate checks the subscribe request fields.
func (m SubscribeRequest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Topic, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Endpoint, validation.Required, validation.Length(3, 512), validation.By(endpointURL)),
	)
}

// PublishRequest represents a publish message request.
type PublishRequest struct {
	Topic string        `json:"topic"`
	Data  model.Payload `json:"data"`
}

// Validate checks the publish request fields.
func (m PublishRequest) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Topic, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Data, validation.NotNil),
	)
}

// PublishResponse reports the outcome of a fan-out.
type PublishResponse struct {
	FailedSubscribers []string `json:"failedSubscribers"`
}

// MessagesResponse carries a subscriber's polled backlog, oldest first.
type MessagesResponse struct {
	Messages []model.Message `json:"messages"`
}

// SubscribersResponse lists the endpoints subscribed to a topic.
type SubscribersResponse struct {
	Topic       string   `json:"topic"`
	Subscribers []string `json:"subscribers"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
