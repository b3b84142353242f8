package testutil

import (
	"sync"

	"github.com/brianly1003/phxstream/internal/demand"
)

// RecordingObserver records everything a stream delivers to it.
// It satisfies stream.Observer[T].
type RecordingObserver[T any] struct {
	mu        sync.Mutex
	values    []T
	completed int
	failures  []error
	next      func(T) demand.Demand
}

// NewRecordingObserver creates an observer that never asks for more demand.
func NewRecordingObserver[T any]() *RecordingObserver[T] {
	return &RecordingObserver[T]{}
}

// NewRecordingObserverFunc creates an observer whose OnNext returns next(v).
func NewRecordingObserverFunc[T any](next func(T) demand.Demand) *RecordingObserver[T] {
	return &RecordingObserver[T]{next: next}
}

// OnNext records v.
func (r *RecordingObserver[T]) OnNext(v T) demand.Demand {
	r.mu.Lock()
	r.values = append(r.values, v)
	next := r.next
	r.mu.Unlock()
	if next == nil {
		return demand.None
	}
	return next(v)
}

// OnComplete records completion.
func (r *RecordingObserver[T]) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}

// OnFailure records err.
func (r *RecordingObserver[T]) OnFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// Values returns the delivered values in order.
func (r *RecordingObserver[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T{}, r.values...)
}

// Completions returns how many times OnComplete was called.
func (r *RecordingObserver[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Failures returns every error passed to OnFailure.
func (r *RecordingObserver[T]) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error{}, r.failures...)
}
