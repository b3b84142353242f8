package ports

import (
	"time"

	"github.com/brianly1003/phxstream/internal/domain/events"
)

// EventSource delivers named events, e.g. a channel's topic events.
type EventSource interface {
	// On registers callback for every occurrence of the named event.
	// Registrations are never removed.
	On(event string, callback func(events.Message))
}

// StatusSource reports connection status transitions.
// Each callback may fire many times over the source's lifetime.
type StatusSource interface {
	OnOpen(callback func())
	OnClose(callback func())
	OnError(callback func(error))
}

// MessageSource delivers every message received on a socket.
type MessageSource interface {
	OnMessage(callback func(events.Message))
}

// Socket is the callback surface of a realtime socket client.
type Socket interface {
	StatusSource
	MessageSource
}

// PendingRequest is an in-flight join, leave or push.
// Exactly one of the "ok", "error" and "timeout" outcomes fires, at most once.
type PendingRequest interface {
	// Receive registers callback for the given reply status.
	Receive(status string, callback func(events.Message))
}

// Channel is the callback surface of a joined (or joinable) topic channel.
type Channel interface {
	EventSource

	// Join starts joining the channel. A zero timeout uses the client's default.
	Join(timeout time.Duration) PendingRequest

	// Leave starts leaving the channel.
	Leave(timeout time.Duration) PendingRequest

	// Push sends event with payload on the channel.
	Push(event string, payload events.Payload, timeout time.Duration) PendingRequest
}
