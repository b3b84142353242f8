package demand

import "sync"

// Ledger tracks declared demand against delivered elements for one subscription.
//
// Every SetDemand starts a fresh window: the delivered count is reset and compared
// against the new bound only. The zero value has no declared demand and drops
// everything offered to it.
//
// Ledger is safe for concurrent use. Deliveries are serialised, so the receive
// function passed to TryDeliver never runs concurrently with itself, and it may
// call SetDemand on the same ledger.
type Ledger struct {
	// serial orders deliveries
	serial sync.Mutex

	// mu guards the fields below
	mu        sync.Mutex
	delivered int
	current   Demand
}

// SetDemand replaces the current demand and resets the delivered count.
func (l *Ledger) SetDemand(d Demand) {
	l.mu.Lock()
	l.delivered = 0
	l.current = d
	l.mu.Unlock()
}

// TryDeliver calls receive if the outstanding demand permits one more element.
// The demand returned by receive is added to the current demand.
// It returns false, without calling receive, when no demand is outstanding.
func (l *Ledger) TryDeliver(receive func() Demand) bool {
	l.serial.Lock()
	defer l.serial.Unlock()

	l.mu.Lock()
	ok := l.permits()
	l.mu.Unlock()
	if !ok {
		return false
	}

	additional := receive()

	// Counted after receive returns, so an element whose receive calls
	// SetDemand counts against the new window.
	l.mu.Lock()
	l.delivered++
	l.current = l.current.Add(additional)
	l.mu.Unlock()
	return true
}

// outstanding returns how many more elements may be delivered right now.
func (l *Ledger) outstanding() Demand {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current.unlimited {
		return Unlimited
	}
	return Max(l.current.max - l.delivered)
}

func (l *Ledger) permits() bool {
	if l.current.unlimited {
		return true
	}
	return l.current.max-l.delivered > 0
}
