package socket

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
)

// Serializer versions understood by Decode.
const (
	VSN1 = "1.0.0"
	VSN2 = "2.0.0"
)

// objectFrame is the 1.0.0 envelope.
type objectFrame struct {
	JoinRef *string        `json:"join_ref,omitempty"`
	Ref     *string        `json:"ref"`
	Topic   string         `json:"topic"`
	Event   string         `json:"event"`
	Payload events.Payload `json:"payload"`
}

// Decode parses a text frame in either the 2.0.0 array form
// [join_ref, ref, topic, event, payload] or the 1.0.0 object form.
func Decode(data []byte) (events.Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return events.Message{}, fmt.Errorf("%w: empty frame", domain.ErrInvalidFrame)
	}

	switch data[0] {
	case '[':
		return decodeArray(data)
	case '{':
		return decodeObject(data)
	default:
		return events.Message{}, fmt.Errorf("%w: unexpected %q", domain.ErrInvalidFrame, data[0])
	}
}

func decodeArray(data []byte) (events.Message, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return events.Message{}, fmt.Errorf("%w: %v", domain.ErrInvalidFrame, err)
	}
	if len(parts) != 5 {
		return events.Message{}, fmt.Errorf("%w: array frame has %d elements, want 5", domain.ErrInvalidFrame, len(parts))
	}

	var (
		msg          events.Message
		joinRef, ref *string
	)
	if err := json.Unmarshal(parts[0], &joinRef); err != nil {
		return events.Message{}, fmt.Errorf("%w: join_ref: %v", domain.ErrInvalidFrame, err)
	}
	if err := json.Unmarshal(parts[1], &ref); err != nil {
		return events.Message{}, fmt.Errorf("%w: ref: %v", domain.ErrInvalidFrame, err)
	}
	if err := json.Unmarshal(parts[2], &msg.Topic); err != nil {
		return events.Message{}, fmt.Errorf("%w: topic: %v", domain.ErrInvalidFrame, err)
	}
	if err := json.Unmarshal(parts[3], &msg.Event); err != nil {
		return events.Message{}, fmt.Errorf("%w: event: %v", domain.ErrInvalidFrame, err)
	}
	if err := json.Unmarshal(parts[4], &msg.Payload); err != nil {
		return events.Message{}, fmt.Errorf("%w: payload: %v", domain.ErrInvalidFrame, err)
	}

	msg.JoinRef = deref(joinRef)
	msg.Ref = deref(ref)
	return msg, nil
}

func decodeObject(data []byte) (events.Message, error) {
	var f objectFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return events.Message{}, fmt.Errorf("%w: %v", domain.ErrInvalidFrame, err)
	}
	if f.Topic == "" || f.Event == "" {
		return events.Message{}, fmt.Errorf("%w: missing topic or event", domain.ErrInvalidFrame)
	}

	return events.Message{
		JoinRef: deref(f.JoinRef),
		Ref:     deref(f.Ref),
		Topic:   f.Topic,
		Event:   f.Event,
		Payload: f.Payload,
	}, nil
}

// Encode renders msg in the 2.0.0 array form. Empty refs are sent as null.
func Encode(msg events.Message) ([]byte, error) {
	payload := msg.Payload
	if payload == nil {
		payload = events.Payload{}
	}
	return json.Marshal([]any{nullable(msg.JoinRef), nullable(msg.Ref), msg.Topic, msg.Event, payload})
}

// EncodeObject renders msg in the 1.0.0 object form.
func EncodeObject(msg events.Message) ([]byte, error) {
	payload := msg.Payload
	if payload == nil {
		payload = events.Payload{}
	}
	f := objectFrame{Topic: msg.Topic, Event: msg.Event, Payload: payload}
	if msg.JoinRef != "" {
		f.JoinRef = &msg.JoinRef
	}
	if msg.Ref != "" {
		f.Ref = &msg.Ref
	}
	return json.Marshal(f)
}

// encoderFor returns the frame encoder for a serializer version.
func encoderFor(vsn string) (func(events.Message) ([]byte, error), error) {
	switch vsn {
	case VSN2, "":
		return Encode, nil
	case VSN1:
		return EncodeObject, nil
	default:
		return nil, fmt.Errorf("unsupported serializer version %q", vsn)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
