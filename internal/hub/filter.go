package hub

import (
	"sync"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// FilteredSubscriber forwards only the events matching its topic and type
// filters. An empty filter matches everything.
type FilteredSubscriber struct {
	inner ports.Subscriber

	mu     sync.RWMutex
	topics map[string]bool
	types  map[events.EventType]bool
}

// NewFilteredSubscriber wraps inner.
func NewFilteredSubscriber(inner ports.Subscriber) *FilteredSubscriber {
	return &FilteredSubscriber{
		inner:  inner,
		topics: make(map[string]bool),
		types:  make(map[events.EventType]bool),
	}
}

// ID returns the wrapped subscriber's ID.
func (f *FilteredSubscriber) ID() string {
	return f.inner.ID()
}

// Send forwards event if it matches.
func (f *FilteredSubscriber) Send(event events.Event) error {
	if !f.matches(event) {
		return nil
	}
	return f.inner.Send(event)
}

// Close closes the wrapped subscriber.
func (f *FilteredSubscriber) Close() error {
	return f.inner.Close()
}

// Done returns the wrapped subscriber's done channel.
func (f *FilteredSubscriber) Done() <-chan struct{} {
	return f.inner.Done()
}

// AllowTopic adds topic to the filter. Events without a topic, such as
// socket status records, always pass the topic filter.
func (f *FilteredSubscriber) AllowTopic(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics[topic] = true
}

// AllowType adds t to the filter.
func (f *FilteredSubscriber) AllowType(t events.EventType) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[t] = true
}

// Reset clears both filters.
func (f *FilteredSubscriber) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = make(map[string]bool)
	f.types = make(map[events.EventType]bool)
}

// IsFiltering reports whether any filter is set.
func (f *FilteredSubscriber) IsFiltering() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.topics) > 0 || len(f.types) > 0
}

func (f *FilteredSubscriber) matches(event events.Event) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.types) > 0 && !f.types[event.Type()] {
		return false
	}
	if len(f.topics) == 0 {
		return true
	}
	topic := event.GetTopic()
	return topic == "" || f.topics[topic]
}
