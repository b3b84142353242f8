// Package transport carries raw socket frames over WebSocket or stdio.
package transport

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common transport errors.
var (
	ErrTransportClosed = errors.New("transport is closed")
	ErrBinaryFrame     = errors.New("binary frames are not supported")
)

// Transport is a bidirectional, frame-oriented connection.
type Transport interface {
	// ID returns a unique identifier for this transport instance.
	ID() string

	// Read blocks until the next frame arrives or ctx is cancelled.
	// It returns io.EOF when the peer closed the connection cleanly.
	Read(ctx context.Context) ([]byte, error)

	// Write sends one frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the transport. It is safe to call more than once.
	Close() error

	// Done is closed once the transport has been closed.
	Done() <-chan struct{}
}

// Info describes a transport connection.
type Info struct {
	// Type is "websocket" or "stdio".
	Type string

	// RemoteAddr and LocalAddr are empty for stdio.
	RemoteAddr string
	LocalAddr  string
}

// GenerateID returns a new random transport ID.
func GenerateID() string {
	return uuid.New().String()
}
