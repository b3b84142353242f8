// Package stream bridges callback-driven event sources into demand-aware streams.
//
// A Stream is cold: nothing is registered with the underlying source until an
// Observer attaches, and every Attach creates an independent subscription with
// its own demand accounting. Attach returns a Handle through which the observer
// declares demand and cancels.
//
// Delivery is push-on-demand: when the source fires, the element is handed to the
// observer only if outstanding demand permits it; otherwise it is dropped. Dropped
// elements are never buffered or replayed.
package stream

import "github.com/brianly1003/phxstream/internal/demand"

// Observer receives the elements of a stream.
//
// OnNext returns the additional demand the observer wants on top of what it has
// already requested; return demand.None to keep the current window.
// OnComplete and OnFailure are terminal and only ever called by one-shot streams.
type Observer[T any] interface {
	OnNext(value T) demand.Demand
	OnComplete()
	OnFailure(err error)
}

// Handle controls one attachment of an observer to a stream.
type Handle interface {
	// Request replaces the outstanding demand with d and resets the delivered count.
	Request(d demand.Demand)

	// Cancel stops delivery. It is idempotent.
	Cancel()
}

// Stream is a cold source of elements of type T.
type Stream[T any] interface {
	Attach(o Observer[T]) Handle
}

// Func adapts an ordinary function to the Stream interface.
type Func[T any] func(o Observer[T]) Handle

// Attach calls f(o).
func (f Func[T]) Attach(o Observer[T]) Handle {
	return f(o)
}

// ObserverFuncs builds an Observer from optional callbacks.
// A nil Next callback accepts the element without asking for more.
type ObserverFuncs[T any] struct {
	Next     func(T) demand.Demand
	Complete func()
	Failure  func(error)
}

// OnNext calls Next.
func (f ObserverFuncs[T]) OnNext(value T) demand.Demand {
	if f.Next == nil {
		return demand.None
	}
	return f.Next(value)
}

// OnComplete calls Complete.
func (f ObserverFuncs[T]) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}

// OnFailure calls Failure.
func (f ObserverFuncs[T]) OnFailure(err error) {
	if f.Failure != nil {
		f.Failure(err)
	}
}

// Sink attaches onNext to s with unlimited demand.
func Sink[T any](s Stream[T], onNext func(T)) Handle {
	h := s.Attach(ObserverFuncs[T]{
		Next: func(v T) demand.Demand {
			onNext(v)
			return demand.None
		},
	})
	h.Request(demand.Unlimited)
	return h
}

// Never returns a stream that never produces an element or terminates.
func Never[T any]() Stream[T] {
	return Func[T](func(Observer[T]) Handle {
		return nopHandle{}
	})
}

type nopHandle struct{}

func (nopHandle) Request(demand.Demand) {}
func (nopHandle) Cancel()               {}
