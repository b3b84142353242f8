package publishers

import (
	"weak"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
	"github.com/brianly1003/phxstream/internal/stream"
)

// SocketPublishers builds streams over one socket.
type SocketPublishers[S any, P interface {
	*S
	ports.Socket
}] struct {
	socket weak.Pointer[S]
}

// ForSocket returns the stream facade for s.
func ForSocket[S any, P interface {
	*S
	ports.Socket
}](s P) *SocketPublishers[S, P] {
	return &SocketPublishers[S, P]{socket: weak.Make((*S)(s))}
}

// Alive reports whether the socket is still reachable.
func (p *SocketPublishers[S, P]) Alive() bool {
	return p.socket.Value() != nil
}

// OnOpen streams one element per open callback.
func (p *SocketPublishers[S, P]) OnOpen() stream.Stream[struct{}] {
	return stream.EventStream(p.socket.Value(), func(s *S, deliver func(struct{})) {
		P(s).OnOpen(func() { deliver(struct{}{}) })
	})
}

// OnClose streams one element per close callback.
func (p *SocketPublishers[S, P]) OnClose() stream.Stream[struct{}] {
	return stream.EventStream(p.socket.Value(), func(s *S, deliver func(struct{})) {
		P(s).OnClose(func() { deliver(struct{}{}) })
	})
}

// OnError streams the cause of every error callback.
func (p *SocketPublishers[S, P]) OnError() stream.Stream[error] {
	return stream.EventStream(p.socket.Value(), func(s *S, deliver func(error)) {
		P(s).OnError(deliver)
	})
}

// OnMessage streams every message received on the socket.
func (p *SocketPublishers[S, P]) OnMessage() stream.Stream[events.Message] {
	return stream.EventStream(p.socket.Value(), func(s *S, deliver func(events.Message)) {
		P(s).OnMessage(deliver)
	})
}

// StatusEvents merges the open, close and error callbacks into one stream.
// A single subscription listens to all three, so the elements come out in the
// order the socket dispatches its callbacks.
func (p *SocketPublishers[S, P]) StatusEvents() stream.Stream[events.StatusEvent] {
	return stream.EventStream(p.socket.Value(), func(s *S, deliver func(events.StatusEvent)) {
		sock := P(s)
		sock.OnOpen(func() { deliver(events.Opened()) })
		sock.OnClose(func() { deliver(events.Closed()) })
		sock.OnError(func(err error) { deliver(events.Errored(err)) })
	})
}
