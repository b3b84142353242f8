package stream

import (
	"sync"

	"github.com/brianly1003/phxstream/internal/demand"
	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// ResultSubscription observes the single terminal outcome of a pending request.
//
// Listeners are registered on the first Request carrying non-zero demand. An "ok"
// reply is delivered as one element followed by completion; "error" and "timeout"
// replies fail the observer with a *domain.PushError. Whatever fires first wins;
// later outcomes are ignored.
//
// Unlike EventSubscription, the request is held strongly, but only until the
// listeners are registered or the subscription is cancelled. A request that has
// not been demanded yet therefore cannot be collected out from under it.
type ResultSubscription struct {
	mu         sync.Mutex
	request    ports.PendingRequest
	observer   Observer[events.Message]
	registered bool
}

// NewResultSubscription creates a one-shot subscription for req.
func NewResultSubscription(req ports.PendingRequest, o Observer[events.Message]) *ResultSubscription {
	return &ResultSubscription{
		request:  req,
		observer: o,
	}
}

// Request registers the outcome listeners. Request(demand.None) is ignored.
func (s *ResultSubscription) Request(d demand.Demand) {
	if d == demand.None {
		return
	}

	s.mu.Lock()
	if s.registered || s.observer == nil {
		s.mu.Unlock()
		return
	}
	s.registered = true
	req := s.request
	s.request = nil
	s.mu.Unlock()

	if req == nil {
		return
	}
	// The collaborator may answer synchronously if the reply already arrived.
	req.Receive(events.ReplyStatusOK, s.succeed)
	req.Receive(events.ReplyStatusError, s.reject)
	req.Receive(events.ReplyStatusTimeout, s.timeout)
}

// Cancel releases the observer; outcomes arriving afterwards are dropped.
func (s *ResultSubscription) Cancel() {
	s.mu.Lock()
	s.observer = nil
	s.request = nil
	s.mu.Unlock()
}

// done reports whether the subscription has terminated or been cancelled.
func (s *ResultSubscription) done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observer == nil
}

// take hands out the observer exactly once.
func (s *ResultSubscription) take() Observer[events.Message] {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.observer
	s.observer = nil
	return o
}

func (s *ResultSubscription) succeed(reply events.Message) {
	o := s.take()
	if o == nil {
		return
	}
	Logger().Debug().Str("topic", reply.Topic).Str("ref", reply.Ref).Msg("request acknowledged")
	_ = o.OnNext(reply)
	o.OnComplete()
}

func (s *ResultSubscription) reject(reply events.Message) {
	s.fail(domain.NewRejectedError(reply))
}

func (s *ResultSubscription) timeout(reply events.Message) {
	s.fail(domain.NewTimedOutError(reply))
}

func (s *ResultSubscription) fail(err *domain.PushError) {
	o := s.take()
	if o == nil {
		return
	}
	Logger().Debug().
		Str("topic", err.Reply.Topic).
		Str("ref", err.Reply.Ref).
		Str("outcome", err.Kind.String()).
		Msg("request failed")
	o.OnFailure(err)
}

// Result returns a one-shot stream over req. Every Attach registers its own
// listeners on the same request.
func Result(req ports.PendingRequest) Stream[events.Message] {
	return Func[events.Message](func(o Observer[events.Message]) Handle {
		return NewResultSubscription(req, o)
	})
}
