// Package hub fans observed stream records out to printers, recorders and
// any other subscriber.
package hub

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// DefaultBufferSize is the capacity of the publish queue.
const DefaultBufferSize = 256

// Hub dispatches published events to every registered subscriber from a
// single goroutine, so each subscriber sees events in publish order.
type Hub struct {
	logger *zerolog.Logger

	// subscribers holds all active subscribers
	subscribers map[string]ports.Subscriber

	// broadcast queues events to be dispatched
	broadcast chan events.Event

	register   chan ports.Subscriber
	unregister chan string

	// mu protects subscribers and running
	mu sync.RWMutex

	done    chan struct{}
	stopped chan struct{}
	running bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the publish queue capacity.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.broadcast = make(chan events.Event, n)
		}
	}
}

// WithLogger sets the logger. The global logger is used by default.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// New creates a new Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		logger:      &log.Logger,
		subscribers: make(map[string]ports.Subscriber),
		broadcast:   make(chan events.Event, DefaultBufferSize),
		register:    make(chan ports.Subscriber),
		unregister:  make(chan string),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins the dispatch loop.
func (h *Hub) Start() error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	h.logger.Debug().Msg("event hub started")

	go h.run()
	return nil
}

// Stop dispatches whatever is still queued, then closes every subscriber.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	h.mu.Unlock()

	close(h.done)
	<-h.stopped

	h.mu.Lock()
	for _, sub := range h.subscribers {
		_ = sub.Close()
	}
	h.subscribers = make(map[string]ports.Subscriber)
	h.mu.Unlock()

	h.logger.Debug().Msg("event hub stopped")
	return nil
}

func (h *Hub) run() {
	defer close(h.stopped)

	for {
		select {
		case <-h.done:
			h.drain()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub.ID()] = sub
			h.mu.Unlock()
			h.logger.Debug().Str("subscriber_id", sub.ID()).Msg("subscriber registered")

		case id := <-h.unregister:
			h.remove(id)

		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

// drain dispatches every event still in the queue.
func (h *Hub) drain() {
	for {
		select {
		case event := <-h.broadcast:
			h.dispatch(event)
		default:
			return
		}
	}
}

func (h *Hub) dispatch(event events.Event) {
	var failed []string

	h.mu.RLock()
	for id, sub := range h.subscribers {
		if err := sub.Send(event); err != nil {
			h.logger.Warn().
				Str("subscriber_id", id).
				Str("event_type", string(event.Type())).
				Err(err).
				Msg("failed to send event to subscriber")
			failed = append(failed, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range failed {
		h.remove(id)
	}
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		_ = sub.Close()
		h.logger.Debug().Str("subscriber_id", id).Msg("subscriber unregistered")
	}
}

// Publish queues event for dispatch. The event is dropped when the queue is full.
func (h *Hub) Publish(event events.Event) {
	select {
	case h.broadcast <- event:
		h.logger.Trace().
			Str("event_type", string(event.Type())).
			Str("topic", event.GetTopic()).
			Msg("event published")
	default:
		h.logger.Warn().
			Str("event_type", string(event.Type())).
			Msg("event dropped: broadcast queue full")
	}
}

// Subscribe adds a subscriber.
func (h *Hub) Subscribe(sub ports.Subscriber) {
	select {
	case h.register <- sub:
	case <-h.done:
	}
}

// Unsubscribe removes and closes the subscriber with id.
func (h *Hub) Unsubscribe(id string) {
	select {
	case h.unregister <- id:
	case <-h.done:
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// IsRunning reports whether the dispatch loop is running.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

var _ ports.EventHub = (*Hub)(nil)
