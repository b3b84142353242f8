package testutil

import (
	"strconv"
	"sync"
	"time"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// MockSocket implements ports.Socket. Callbacks run synchronously on the
// goroutine that calls one of the Fire methods, in registration order.
type MockSocket struct {
	mu      sync.Mutex
	open    []func()
	closes  []func()
	errs    []func(error)
	message []func(events.Message)
}

// NewMockSocket creates a new mock socket.
func NewMockSocket() *MockSocket {
	return &MockSocket{}
}

// OnOpen registers an open callback.
func (m *MockSocket) OnOpen(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = append(m.open, callback)
}

// OnClose registers a close callback.
func (m *MockSocket) OnClose(callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes = append(m.closes, callback)
}

// OnError registers an error callback.
func (m *MockSocket) OnError(callback func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, callback)
}

// OnMessage registers a message callback.
func (m *MockSocket) OnMessage(callback func(events.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.message = append(m.message, callback)
}

// FireOpen invokes every open callback.
func (m *MockSocket) FireOpen() {
	m.mu.Lock()
	cbs := append([]func(){}, m.open...)
	m.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// FireClose invokes every close callback.
func (m *MockSocket) FireClose() {
	m.mu.Lock()
	cbs := append([]func(){}, m.closes...)
	m.mu.Unlock()
	for _, cb := range cbs {
		cb()
	}
}

// FireError invokes every error callback with err.
func (m *MockSocket) FireError(err error) {
	m.mu.Lock()
	cbs := append([]func(error){}, m.errs...)
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(err)
	}
}

// FireMessage invokes every message callback with msg.
func (m *MockSocket) FireMessage(msg events.Message) {
	m.mu.Lock()
	cbs := append([]func(events.Message){}, m.message...)
	m.mu.Unlock()
	for _, cb := range cbs {
		cb(msg)
	}
}

// CallbackCount returns the total number of registered callbacks.
func (m *MockSocket) CallbackCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open) + len(m.closes) + len(m.errs) + len(m.message)
}

var _ ports.Socket = (*MockSocket)(nil)

// MockChannel implements ports.Channel.
type MockChannel struct {
	topic string

	mu       sync.Mutex
	bindings map[string][]func(events.Message)
	pushes   []*MockPush
	nextRef  int
}

// NewMockChannel creates a mock channel for topic.
func NewMockChannel(topic string) *MockChannel {
	return &MockChannel{
		topic:    topic,
		bindings: make(map[string][]func(events.Message)),
	}
}

// On registers callback for event.
func (m *MockChannel) On(event string, callback func(events.Message)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[event] = append(m.bindings[event], callback)
}

// Trigger fires event with payload on every binding for it.
func (m *MockChannel) Trigger(event string, payload events.Payload) {
	m.mu.Lock()
	cbs := append([]func(events.Message){}, m.bindings[event]...)
	m.mu.Unlock()

	msg := events.Message{Topic: m.topic, Event: event, Payload: payload}
	for _, cb := range cbs {
		cb(msg)
	}
}

// Join returns a new pending join request.
func (m *MockChannel) Join(timeout time.Duration) ports.PendingRequest {
	return m.newPush(events.ChannelEventJoin, nil, timeout)
}

// Leave returns a new pending leave request.
func (m *MockChannel) Leave(timeout time.Duration) ports.PendingRequest {
	return m.newPush(events.ChannelEventLeave, nil, timeout)
}

// Push returns a new pending push of event.
func (m *MockChannel) Push(event string, payload events.Payload, timeout time.Duration) ports.PendingRequest {
	return m.newPush(event, payload, timeout)
}

// Pushes returns every pending request created so far, oldest first.
func (m *MockChannel) Pushes() []*MockPush {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockPush{}, m.pushes...)
}

// LastPush returns the most recent pending request, or nil.
func (m *MockChannel) LastPush() *MockPush {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pushes) == 0 {
		return nil
	}
	return m.pushes[len(m.pushes)-1]
}

func (m *MockChannel) newPush(event string, payload events.Payload, timeout time.Duration) *MockPush {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRef++
	p := &MockPush{
		Topic:   m.topic,
		Event:   event,
		Payload: payload,
		Timeout: timeout,
		Ref:     strconv.Itoa(m.nextRef),
		hooks:   make(map[string][]func(events.Message)),
	}
	m.pushes = append(m.pushes, p)
	return p
}

var _ ports.Channel = (*MockChannel)(nil)

// MockPush implements ports.PendingRequest. Like a real client it resolves at
// most once and replays the outcome to callbacks registered after resolution.
type MockPush struct {
	Topic   string
	Event   string
	Payload events.Payload
	Timeout time.Duration
	Ref     string

	mu       sync.Mutex
	hooks    map[string][]func(events.Message)
	resolved bool
	status   string
	reply    events.Message
}

// Receive registers callback for status.
func (p *MockPush) Receive(status string, callback func(events.Message)) {
	p.mu.Lock()
	if p.resolved {
		replay := p.status == status
		reply := p.reply
		p.mu.Unlock()
		if replay {
			callback(reply)
		}
		return
	}
	p.hooks[status] = append(p.hooks[status], callback)
	p.mu.Unlock()
}

// Trigger resolves the request with status and response. Only the first call
// has any effect.
func (p *MockPush) Trigger(status string, response events.Payload) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.status = status
	p.reply = events.Message{
		Topic: p.Topic,
		Event: events.ChannelEventReply,
		Ref:   p.Ref,
		Payload: events.Payload{
			"status":   status,
			"response": response,
		},
	}
	cbs := append([]func(events.Message){}, p.hooks[status]...)
	reply := p.reply
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(reply)
	}
}

// HookCount returns the number of callbacks registered for status.
func (p *MockPush) HookCount(status string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.hooks[status])
}

var _ ports.PendingRequest = (*MockPush)(nil)
