package model

import (
	"encoding/json"
	"time"
)

// tablePrefix namespaces the engine's tables inside a shared database.
const tablePrefix = "fanout_"

// DeliveryRecord is the durable entry tracking whether a specific message
// has been acknowledged as received by a specific subscriber.
//
// Records are keyed by (subscriber, publishedAtUtc) - a re-store with the
// same key overwrites rather than duplicates, which makes insertion
// idempotent. The received flag transitions false -> true exactly once via
// an explicit acknowledgment and never transitions back. Records are not
// physically deleted; retention is out of scope.
type DeliveryRecord struct {
	ID          int64     `json:"id" db:"id"`
	Subscriber  string    `json:"subscriber" db:"subscriber"`
	PublishedAt string    `json:"publishedAt" db:"published_at"`
	Message     string    `json:"message" db:"message"` // wire-shape JSON payload
	Received    bool      `json:"received" db:"received"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the database table name for DeliveryRecord.
func (r *DeliveryRecord) TableName() string {
	return tablePrefix + "delivery"
}

// NewDeliveryRecord creates an unreceived delivery record for a stamped
// message addressed to one subscriber of its fan-out list.
func NewDeliveryRecord(subscriber string, msg Message) (DeliveryRecord, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return DeliveryRecord{}, err
	}
	return DeliveryRecord{
		ID:          0,
		Subscriber:  subscriber,
		PublishedAt: msg.PublishedAt(),
		Message:     string(data),
		Received:    false,
		CreatedAt:   time.Now(),
	}, nil
}

// MarkReceived flips the record to received. Returns false if the record
// was already received (idempotent no-op), true if this call performed the
// transition.
func (r *DeliveryRecord) MarkReceived() bool {
	if r.Received {
		return false
	}
	r.Received = true
	return true
}

// DecodeMessage parses the stored wire-shape payload back into a Message.
func (r *DeliveryRecord) DecodeMessage() (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(r.Message), &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
