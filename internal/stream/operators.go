package stream

import "github.com/brianly1003/phxstream/internal/demand"

// Map returns a stream that applies fn to every element of s.
// Demand flows through unchanged.
func Map[T, U any](s Stream[T], fn func(T) U) Stream[U] {
	return CompactMap(s, func(v T) (U, bool) {
		return fn(v), true
	})
}

// Filter returns a stream of the elements of s for which keep returns true.
// Every rejected element is compensated with one unit of demand, so filtering
// never eats into the observer's window.
func Filter[T any](s Stream[T], keep func(T) bool) Stream[T] {
	return CompactMap(s, func(v T) (T, bool) {
		return v, keep(v)
	})
}

// CompactMap returns a stream of the values fn produces with ok set, dropping
// the rest the same way Filter does.
func CompactMap[T, U any](s Stream[T], fn func(T) (U, bool)) Stream[U] {
	return Func[U](func(o Observer[U]) Handle {
		return s.Attach(&compactMapObserver[T, U]{fn: fn, downstream: o})
	})
}

type compactMapObserver[T, U any] struct {
	fn         func(T) (U, bool)
	downstream Observer[U]
}

func (c *compactMapObserver[T, U]) OnNext(v T) demand.Demand {
	u, ok := c.fn(v)
	if !ok {
		return demand.Max(1)
	}
	return c.downstream.OnNext(u)
}

func (c *compactMapObserver[T, U]) OnComplete() {
	c.downstream.OnComplete()
}

func (c *compactMapObserver[T, U]) OnFailure(err error) {
	c.downstream.OnFailure(err)
}
