package events

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRecord_Type(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   EventType
	}{
		{"message", NewMessageRecord(Message{Topic: "room:1", Event: "new_msg"}), EventTypeMessage},
		{"status", NewStatusRecord(Opened()), EventTypeStatus},
		{"reply", NewReplyRecord(EventTypeReply, Message{}), EventTypeReply},
		{"rejected", NewReplyRecord(EventTypeRejected, Message{}), EventTypeRejected},
		{"timeout", NewReplyRecord(EventTypeTimeout, Message{}), EventTypeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.record.Type() != tt.want {
				t.Errorf("Type() = %v, want %v", tt.record.Type(), tt.want)
			}
		})
	}
}

func TestRecord_Timestamp(t *testing.T) {
	before := time.Now().UTC()
	r := NewMessageRecord(Message{Event: "ping"})
	after := time.Now().UTC()

	ts := r.Timestamp()
	if ts.Before(before) {
		t.Errorf("Timestamp() = %v, should be >= %v", ts, before)
	}
	if ts.After(after) {
		t.Errorf("Timestamp() = %v, should be <= %v", ts, after)
	}
}

func TestRecord_ToJSON(t *testing.T) {
	msg := Message{
		Ref:     "7",
		Topic:   "room:lobby",
		Event:   "new_msg",
		Payload: Payload{"body": "hi"},
	}
	r := NewMessageRecord(msg)

	data, err := r.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}

	if parsed["type"] != "message" {
		t.Errorf("type = %v, want message", parsed["type"])
	}
	if parsed["topic"] != "room:lobby" {
		t.Errorf("topic = %v, want room:lobby", parsed["topic"])
	}
	if parsed["ref"] != "7" {
		t.Errorf("ref = %v, want 7", parsed["ref"])
	}
	payload, ok := parsed["payload"].(map[string]interface{})
	if !ok {
		t.Fatalf("payload = %T, want object", parsed["payload"])
	}
	if payload["body"] != "hi" {
		t.Errorf("payload.body = %v, want hi", payload["body"])
	}
}

func TestNewStatusRecord_Error(t *testing.T) {
	r := NewStatusRecord(Errored(errors.New("boom")))

	if r.Status != "errored" {
		t.Errorf("Status = %q, want errored", r.Status)
	}
	if r.Error != "boom" {
		t.Errorf("Error = %q, want boom", r.Error)
	}
}

func TestMessage_StatusAndResponse(t *testing.T) {
	reply := Message{
		Topic: "room:1",
		Event: ChannelEventReply,
		Payload: Payload{
			"status":   "ok",
			"response": map[string]any{"joined": true},
		},
	}

	if !reply.IsReply() {
		t.Error("IsReply() = false, want true")
	}
	if reply.Status() != ReplyStatusOK {
		t.Errorf("Status() = %q, want ok", reply.Status())
	}
	if reply.Response()["joined"] != true {
		t.Errorf("Response() = %v, want joined=true", reply.Response())
	}

	plain := Message{Event: "new_msg", Payload: Payload{"body": "x"}}
	if plain.Status() != "" {
		t.Errorf("Status() = %q, want empty", plain.Status())
	}
	if plain.Response()["body"] != "x" {
		t.Errorf("Response() = %v, want payload", plain.Response())
	}

	var empty Message
	if empty.Status() != "" {
		t.Errorf("Status() on empty message = %q, want empty", empty.Status())
	}
}

func TestStatusEvent_String(t *testing.T) {
	tests := []struct {
		event StatusEvent
		want  string
	}{
		{Opened(), "opened"},
		{Closed(), "closed"},
		{Errored(errors.New("x")), "errored(x)"},
		{StatusEvent{Kind: StatusKind(9)}, "StatusKind(9)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.event.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
