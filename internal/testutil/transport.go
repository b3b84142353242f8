package testutil

import (
	"context"
	"sync"

	"github.com/brianly1003/phxstream/internal/transport"
)

type readResult struct {
	data []byte
	err  error
}

// MockTransport is an in-memory transport.Transport. Frames queued with
// Deliver are returned by Read; frames passed to Write are recorded.
type MockTransport struct {
	id    string
	reads chan readResult

	mu       sync.Mutex
	writes   [][]byte
	writeErr error
	written  chan []byte
	done     chan struct{}
	closed   bool
}

// NewMockTransport creates a new mock transport.
func NewMockTransport(id string) *MockTransport {
	return &MockTransport{
		id:      id,
		reads:   make(chan readResult, 64),
		written: make(chan []byte, 64),
		done:    make(chan struct{}),
	}
}

// ID returns the transport ID.
func (m *MockTransport) ID() string {
	return m.id
}

// Deliver queues a frame for Read.
func (m *MockTransport) Deliver(frame string) {
	m.reads <- readResult{data: []byte(frame)}
}

// Fail makes the next Read return err.
func (m *MockTransport) Fail(err error) {
	m.reads <- readResult{err: err}
}

// Read returns the next queued frame or error. It blocks until one is queued,
// ctx is cancelled or the transport is closed.
func (m *MockTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case r := <-m.reads:
		return r.data, r.err
	case <-m.done:
		return nil, transport.ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write records data.
func (m *MockTransport) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return transport.ErrTransportClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	frame := append([]byte(nil), data...)
	m.writes = append(m.writes, frame)
	select {
	case m.written <- frame:
	default:
	}
	return nil
}

// SetWriteError makes every subsequent Write fail with err.
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Writes returns every frame written so far.
func (m *MockTransport) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.writes))
	for _, w := range m.writes {
		out = append(out, string(w))
	}
	return out
}

// Written returns a channel receiving each frame as it is written.
func (m *MockTransport) Written() <-chan []byte {
	return m.written
}

// Close closes the transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Done is closed once Close has been called.
func (m *MockTransport) Done() <-chan struct{} {
	return m.done
}

// IsClosed reports whether Close has been called.
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ transport.Transport = (*MockTransport)(nil)
