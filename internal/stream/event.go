package stream

import (
	"sync"
	"weak"

	"github.com/brianly1003/phxstream/internal/demand"
)

// EventSubscription binds one observer to one kind of event on a source.
//
// The source is referenced weakly: the subscription never keeps it alive, and
// once it has been collected the subscription goes quiet. The listener is
// registered eagerly, at construction, so nothing fired after Attach returns is
// missed for lack of registration; elements fired before the first Request meet
// zero demand and are dropped.
type EventSubscription[S, T any] struct {
	source weak.Pointer[S]
	ledger demand.Ledger

	mu       sync.Mutex
	observer Observer[T]
}

// NewEventSubscription creates a subscription and registers it with source.
// listen is called once, here, to register deliver for the observed events; it
// must not retain source. A nil source yields a subscription that never delivers.
func NewEventSubscription[S, T any](source *S, listen func(source *S, deliver func(T)), o Observer[T]) *EventSubscription[S, T] {
	sub := &EventSubscription[S, T]{
		source:   weak.Make(source),
		observer: o,
	}
	if source != nil {
		listen(source, sub.deliver)
	}
	return sub
}

// Request declares how many elements the observer is willing to receive.
func (s *EventSubscription[S, T]) Request(d demand.Demand) {
	s.ledger.SetDemand(d)
}

// Cancel releases the observer. Listeners stay registered with the source and
// become no-ops.
func (s *EventSubscription[S, T]) Cancel() {
	s.mu.Lock()
	s.observer = nil
	s.mu.Unlock()
}

// cancelled reports whether Cancel has been called.
func (s *EventSubscription[S, T]) cancelled() bool {
	return s.current() == nil
}

func (s *EventSubscription[S, T]) current() Observer[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer
}

// deliver is the listener registered with the source.
func (s *EventSubscription[S, T]) deliver(value T) {
	if s.source.Value() == nil {
		return
	}
	o := s.current()
	if o == nil {
		return
	}

	delivered := s.ledger.TryDeliver(func() demand.Demand {
		// Cancel may have landed while waiting for an earlier delivery.
		if s.current() == nil {
			return demand.None
		}
		return o.OnNext(value)
	})
	if !delivered {
		Logger().Trace().Msg("stream element dropped: no outstanding demand")
	}
}

// EventStream returns a cold stream over source. Each Attach creates a new
// EventSubscription. The stream holds source weakly; attaching after source has
// been collected yields an inert subscription.
func EventStream[S, T any](source *S, listen func(source *S, deliver func(T))) Stream[T] {
	ref := weak.Make(source)
	return Func[T](func(o Observer[T]) Handle {
		return NewEventSubscription(ref.Value(), listen, o)
	})
}
