package hub

import (
	"sync"

	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
)

// ChannelSubscriber hands events to a buffered Go channel.
// A full buffer fails the send, which makes the hub drop the subscriber.
type ChannelSubscriber struct {
	id   string
	send chan events.Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewChannelSubscriber creates a channel subscriber with the given buffer.
func NewChannelSubscriber(id string, bufferSize int) *ChannelSubscriber {
	return &ChannelSubscriber{
		id:   id,
		send: make(chan events.Event, bufferSize),
		done: make(chan struct{}),
	}
}

// ID returns the subscriber ID.
func (s *ChannelSubscriber) ID() string {
	return s.id
}

// Send queues event without blocking.
func (s *ChannelSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSubscriberClosed
	}

	select {
	case s.send <- event:
		return nil
	default:
		return domain.ErrSubscriberClosed
	}
}

// Close closes the event channel.
func (s *ChannelSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	close(s.send)
	return nil
}

// Done is closed once Close has been called.
func (s *ChannelSubscriber) Done() <-chan struct{} {
	return s.done
}

// Events returns the channel events are delivered on.
func (s *ChannelSubscriber) Events() <-chan events.Event {
	return s.send
}

// LogSubscriber hands every event to a function.
type LogSubscriber struct {
	id    string
	done  chan struct{}
	logFn func(event events.Event)

	mu     sync.Mutex
	closed bool
}

// NewLogSubscriber creates a subscriber calling logFn for each event.
func NewLogSubscriber(id string, logFn func(event events.Event)) *LogSubscriber {
	return &LogSubscriber{
		id:    id,
		done:  make(chan struct{}),
		logFn: logFn,
	}
}

// ID returns the subscriber ID.
func (s *LogSubscriber) ID() string {
	return s.id
}

// Send calls the log function.
func (s *LogSubscriber) Send(event events.Event) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return domain.ErrSubscriberClosed
	}
	if s.logFn != nil {
		s.logFn(event)
	}
	return nil
}

// Close stops forwarding.
func (s *LogSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done is closed once Close has been called.
func (s *LogSubscriber) Done() <-chan struct{} {
	return s.done
}
