// Package model contains the domain models for the fanout delivery engine.
package model

import (
	"encoding/json"
	"time"
)

// System fields stamped onto every message at publish time.
// All other payload keys are publisher-defined and pass through untouched.
const (
	FieldTopic       = "topic"
	FieldPublishedAt = "publishedAtUtc"
)

// TimestampLayout is the fixed-width UTC layout for publishedAtUtc.
// Microsecond precision, zero-padded, so lexicographic order equals
// chronological order. This is the ordering key for redelivery.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Payload is an arbitrary structured message body supplied by a publisher.
type Payload map[string]any

// Message is a publisher-supplied payload augmented with the two system
// fields (topic, publishedAtUtc) at publish time. The broker forwards all
// publisher-defined keys untouched; only the system fields are contractually
// guaranteed present after stamping.
type Message struct {
	payload Payload
}

// NewMessage creates a message from a publisher payload.
// The payload is shallow-copied so the message cannot be mutated through
// the caller's map after publish.
func NewMessage(payload Payload) Message {
	p := make(Payload, len(payload)+2)
	for k, v := range payload {
		p[k] = v
	}
	return Message{payload: p}
}

// Stamp sets the topic and publishedAtUtc system fields.
// Called once per publish call; every fan-out copy of that call shares
// the same timestamp.
func (m Message) Stamp(topic string, at time.Time) {
	m.payload[FieldTopic] = topic
	m.payload[FieldPublishedAt] = at.UTC().Format(TimestampLayout)
}

// IsZero reports whether the message carries no payload at all (the zero
// value). An empty-but-initialized payload is a valid message.
func (m Message) IsZero() bool {
	return m.payload == nil
}

// Topic returns the destination topic, or "" if the message is unstamped.
func (m Message) Topic() string {
	s, _ := m.payload[FieldTopic].(string)
	return s
}

// PublishedAt returns the publishedAtUtc ordering key, or "" if unstamped.
func (m Message) PublishedAt() string {
	s, _ := m.payload[FieldPublishedAt].(string)
	return s
}

// Get returns a payload field by key.
func (m Message) Get(key string) (any, bool) {
	v, ok := m.payload[key]
	return v, ok
}

// Len returns the number of payload fields, system fields included.
func (m Message) Len() int {
	return len(m.payload)
}

// MarshalJSON flattens the message to its wire shape: the payload with the
// system fields as ordinary keys. This is the exact body pushed to
// subscribers and stored in delivery records.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.payload)
}

// UnmarshalJSON restores a message from its wire shape.
func (m *Message) UnmarshalJSON(data []byte) error {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	m.payload = p
	return nil
}
