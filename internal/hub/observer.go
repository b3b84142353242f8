package hub

import (
	"errors"
	"sync"

	"github.com/brianly1003/phxstream/internal/demand"
	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// Observer publishes the elements of a stream to a hub. It implements
// stream.Observer[T].
//
// After each element it asks for replenish more, so a stream requested with
// demand.Max(n) and replenish demand.Max(1) keeps flowing while one with
// replenish demand.None stops after n elements.
type Observer[T any] struct {
	hub       ports.EventHub
	convert   func(T) events.Event
	replenish demand.Demand

	mu    sync.Mutex
	count int
	err   error
	done  chan struct{}
	once  sync.Once
}

// NewObserver creates an observer publishing convert(v) for every element.
func NewObserver[T any](hub ports.EventHub, convert func(T) events.Event, replenish demand.Demand) *Observer[T] {
	return &Observer[T]{
		hub:       hub,
		convert:   convert,
		replenish: replenish,
		done:      make(chan struct{}),
	}
}

// OnNext publishes v.
func (o *Observer[T]) OnNext(v T) demand.Demand {
	o.hub.Publish(o.convert(v))

	o.mu.Lock()
	o.count++
	o.mu.Unlock()
	return o.replenish
}

// OnComplete marks the observer done.
func (o *Observer[T]) OnComplete() {
	o.finish(nil)
}

// OnFailure publishes the failure as a record and marks the observer done.
func (o *Observer[T]) OnFailure(err error) {
	o.hub.Publish(FailureRecord(err))
	o.finish(err)
}

func (o *Observer[T]) finish(err error) {
	o.once.Do(func() {
		o.mu.Lock()
		o.err = err
		o.mu.Unlock()
		close(o.done)
	})
}

// Done is closed once the stream has terminated.
func (o *Observer[T]) Done() <-chan struct{} {
	return o.done
}

// Err returns the failure the stream terminated with, if any.
func (o *Observer[T]) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Count returns how many elements have been published.
func (o *Observer[T]) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// MessageRecord converts a received message.
func MessageRecord(msg events.Message) events.Event {
	return events.NewMessageRecord(msg)
}

// StatusRecord converts a socket status transition.
func StatusRecord(status events.StatusEvent) events.Event {
	return events.NewStatusRecord(status)
}

// ReplyRecord converts a successful request reply.
func ReplyRecord(reply events.Message) events.Event {
	return events.NewReplyRecord(events.EventTypeReply, reply)
}

// FailureRecord converts a request failure. Errors other than
// *domain.PushError become rejected records carrying only the error text.
func FailureRecord(err error) events.Event {
	var pushErr *domain.PushError
	if !errors.As(err, &pushErr) {
		r := events.NewReplyRecord(events.EventTypeRejected, events.Message{})
		r.Error = err.Error()
		return r
	}

	eventType := events.EventTypeRejected
	if pushErr.Kind == domain.TimedOut {
		eventType = events.EventTypeTimeout
	}
	r := events.NewReplyRecord(eventType, pushErr.Reply)
	r.Error = pushErr.Error()
	return r
}
