package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/testutil"
)

func newTestHub(opts ...Option) *Hub {
	logger := zerolog.Nop()
	return New(append([]Option{WithLogger(&logger)}, opts...)...)
}

func msgRecord(topic, event string, n int) *events.Record {
	return events.NewMessageRecord(events.Message{Topic: topic, Event: event, Payload: events.Payload{"n": n}})
}

func TestHub_New(t *testing.T) {
	h := newTestHub(WithBufferSize(8))

	if h.subscribers == nil {
		t.Error("subscribers map is nil")
	}
	if cap(h.broadcast) != 8 {
		t.Errorf("broadcast capacity = %d, want 8", cap(h.broadcast))
	}
	if h.running {
		t.Error("hub should not be running initially")
	}
}

func TestHub_StartStop(t *testing.T) {
	h := newTestHub()

	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !h.IsRunning() {
		t.Error("hub should be running after Start()")
	}
	if err := h.Start(); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if err := h.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.IsRunning() {
		t.Error("hub should not be running after Stop()")
	}
	if err := h.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	h := newTestHub()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	sub := testutil.NewMockSubscriber("test-1")
	h.Subscribe(sub)
	time.Sleep(10 * time.Millisecond)

	if h.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", h.SubscriberCount())
	}

	h.Unsubscribe("test-1")
	time.Sleep(10 * time.Millisecond)

	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() after unsubscribe = %d, want 0", h.SubscriberCount())
	}
	if !sub.IsClosed() {
		t.Error("subscriber should be closed after unsubscribe")
	}
}

func TestHub_PublishOrder(t *testing.T) {
	h := newTestHub()
	_ = h.Start()

	sub1 := testutil.NewMockSubscriber("test-1")
	sub2 := testutil.NewMockSubscriber("test-2")
	h.Subscribe(sub1)
	h.Subscribe(sub2)

	for i := 0; i < 5; i++ {
		h.Publish(msgRecord("room:1", "new_msg", i))
	}
	// Stop dispatches everything still queued.
	_ = h.Stop()

	for _, sub := range []*testutil.MockSubscriber{sub1, sub2} {
		got := sub.Events()
		if len(got) != 5 {
			t.Fatalf("subscriber %s received %d events, want 5", sub.ID(), len(got))
		}
		for i, e := range got {
			if n := e.(*events.Record).Payload["n"]; n != i {
				t.Errorf("subscriber %s event[%d].n = %v, want %d", sub.ID(), i, n, i)
			}
		}
		if !sub.IsClosed() {
			t.Errorf("subscriber %s should be closed after Stop()", sub.ID())
		}
	}
}

func TestHub_FailedSendRemovesSubscriber(t *testing.T) {
	h := newTestHub()
	_ = h.Start()
	defer func() { _ = h.Stop() }()

	failing := testutil.NewMockSubscriber("failing")
	failing.SetSendError(errTestSendFailed)
	good := testutil.NewMockSubscriber("good")
	h.Subscribe(failing)
	h.Subscribe(good)

	h.Publish(events.NewStatusRecord(events.Opened()))
	time.Sleep(50 * time.Millisecond)

	if h.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1 (failing subscriber should be removed)", h.SubscriberCount())
	}
	if !failing.IsClosed() {
		t.Error("failing subscriber should be closed")
	}
	if good.EventCount() != 1 {
		t.Errorf("good subscriber received %d events, want 1", good.EventCount())
	}
}

func TestHub_PublishQueueFull(t *testing.T) {
	h := newTestHub(WithBufferSize(2))

	// Not started: nothing drains the queue.
	for i := 0; i < 5; i++ {
		h.Publish(msgRecord("room:1", "e", i))
	}
	if len(h.broadcast) != 2 {
		t.Errorf("queued = %d, want 2", len(h.broadcast))
	}
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := newTestHub(WithBufferSize(2048))
	_ = h.Start()

	subscribers := make([]*testutil.MockSubscriber, 5)
	for i := range subscribers {
		subscribers[i] = testutil.NewMockSubscriber(string(rune('a' + i)))
		h.Subscribe(subscribers[i])
	}

	var wg sync.WaitGroup
	numGoroutines, numEvents := 10, 100
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numEvents; j++ {
				h.Publish(msgRecord("room:1", "e", id*numEvents+j))
			}
		}(i)
	}
	wg.Wait()
	_ = h.Stop()

	for _, sub := range subscribers {
		if count := sub.EventCount(); count != numGoroutines*numEvents {
			t.Errorf("subscriber %s received %d events, want %d", sub.ID(), count, numGoroutines*numEvents)
		}
	}
}

// errTestSendFailed is a test error for failed sends.
var errTestSendFailed = &testSendError{}

type testSendError struct{}

func (e *testSendError) Error() string { return "test send failed" }
