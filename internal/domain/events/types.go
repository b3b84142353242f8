// Package events defines the message, status and record types used in phxstream.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of a record.
type EventType string

const (
	// Socket events
	EventTypeStatus  EventType = "status"
	EventTypeMessage EventType = "message"

	// Request outcome events
	EventTypeReply    EventType = "reply"
	EventTypeRejected EventType = "rejected"
	EventTypeTimeout  EventType = "timeout"
)

// Event is the base interface for everything fanned out by the hub.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event was observed.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)

	// GetTopic returns the channel topic (may be empty).
	GetTopic() string
}

// Record is an observed stream element flattened for output and storage.
type Record struct {
	EventType EventType `json:"type" yaml:"type"`
	EventTime time.Time `json:"timestamp" yaml:"timestamp"`
	Topic     string    `json:"topic,omitempty" yaml:"topic,omitempty"`
	Event     string    `json:"event,omitempty" yaml:"event,omitempty"`
	Ref       string    `json:"ref,omitempty" yaml:"ref,omitempty"`
	Status    string    `json:"status,omitempty" yaml:"status,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	Payload   Payload   `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Type returns the event type.
func (r *Record) Type() EventType {
	return r.EventType
}

// Timestamp returns when the event was observed.
func (r *Record) Timestamp() time.Time {
	return r.EventTime
}

// GetTopic returns the channel topic.
func (r *Record) GetTopic() string {
	return r.Topic
}

// ToJSON serializes the record to JSON.
func (r *Record) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// NewMessageRecord creates a record for a received message.
func NewMessageRecord(msg Message) *Record {
	return &Record{
		EventType: EventTypeMessage,
		EventTime: time.Now().UTC(),
		Topic:     msg.Topic,
		Event:     msg.Event,
		Ref:       msg.Ref,
		Status:    msg.Status(),
		Payload:   msg.Payload,
	}
}

// NewStatusRecord creates a record for a socket status transition.
func NewStatusRecord(status StatusEvent) *Record {
	r := &Record{
		EventType: EventTypeStatus,
		EventTime: time.Now().UTC(),
		Status:    status.Kind.String(),
	}
	if status.Err != nil {
		r.Error = status.Err.Error()
	}
	return r
}

// NewReplyRecord creates a record for a request outcome.
// eventType is one of EventTypeReply, EventTypeRejected or EventTypeTimeout.
func NewReplyRecord(eventType EventType, reply Message) *Record {
	return &Record{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Topic:     reply.Topic,
		Event:     reply.Event,
		Ref:       reply.Ref,
		Status:    reply.Status(),
		Payload:   reply.Payload,
	}
}
