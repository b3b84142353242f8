package hub

import (
	"errors"
	"testing"

	"github.com/brianly1003/phxstream/internal/demand"
	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/stream"
	"github.com/brianly1003/phxstream/internal/testutil"
)

func TestObserver_Replenish(t *testing.T) {
	tests := []struct {
		name      string
		initial   demand.Demand
		replenish demand.Demand
		want      int
	}{
		{"bounded without replenish", demand.Max(3), demand.None, 3},
		{"bounded with replenish", demand.Max(1), demand.Max(1), 10},
		{"unlimited", demand.Unlimited, demand.None, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testutil.NewMockEventHub()
			sock := testutil.NewMockSocket()
			obs := NewObserver(h, MessageRecord, tt.replenish)

			stream.EventStream(sock, func(s *testutil.MockSocket, deliver func(events.Message)) {
				s.OnMessage(deliver)
			}).Attach(obs).Request(tt.initial)

			for i := 0; i < 10; i++ {
				sock.FireMessage(events.Message{Topic: "room:1", Event: "e"})
			}

			if n := len(h.PublishedEvents()); n != tt.want {
				t.Errorf("published %d, want %d", n, tt.want)
			}
			if obs.Count() != tt.want {
				t.Errorf("Count() = %d, want %d", obs.Count(), tt.want)
			}
		})
	}
}

func TestObserver_ResultOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		wantType events.EventType
		wantErr  error
	}{
		{"ok", events.ReplyStatusOK, events.EventTypeReply, nil},
		{"error", events.ReplyStatusError, events.EventTypeRejected, domain.ErrPushRejected},
		{"timeout", events.ReplyStatusTimeout, events.EventTypeTimeout, domain.ErrPushTimedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testutil.NewMockEventHub()
			ch := testutil.NewMockChannel("room:1")
			obs := NewObserver(h, ReplyRecord, demand.None)

			stream.Result(ch.Join(0)).Attach(obs).Request(demand.Max(1))
			ch.LastPush().Trigger(tt.status, events.Payload{})

			select {
			case <-obs.Done():
			default:
				t.Fatal("Done() not closed after outcome")
			}
			if !errors.Is(obs.Err(), tt.wantErr) {
				t.Errorf("Err() = %v, want %v", obs.Err(), tt.wantErr)
			}

			published := h.PublishedEvents()
			if len(published) != 1 {
				t.Fatalf("published %d records, want 1", len(published))
			}
			r := published[0].(*events.Record)
			if r.Type() != tt.wantType {
				t.Errorf("record type = %v, want %v", r.Type(), tt.wantType)
			}
			if r.Topic != "room:1" {
				t.Errorf("record topic = %q, want room:1", r.Topic)
			}
			if tt.wantErr != nil && r.Error == "" {
				t.Error("failure record has no error text")
			}
		})
	}
}

func TestFailureRecord_PlainError(t *testing.T) {
	r := FailureRecord(errors.New("boom")).(*events.Record)

	if r.Type() != events.EventTypeRejected {
		t.Errorf("Type() = %v, want rejected", r.Type())
	}
	if r.Error != "boom" {
		t.Errorf("Error = %q, want boom", r.Error)
	}
}

func TestStatusRecord(t *testing.T) {
	r := StatusRecord(events.Errored(errors.New("reset"))).(*events.Record)
	if r.Status != "errored" || r.Error != "reset" {
		t.Errorf("record = %+v, want errored/reset", r)
	}
}
