package transport

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
)

// maxLineSize bounds a single newline-delimited frame.
const maxLineSize = DefaultMaxMessageSize

// StdioTransport reads newline-delimited frames from a reader and writes them
// to a writer. It is used to replay captured socket traffic.
type StdioTransport struct {
	id      string
	scanner *bufio.Scanner
	writer  io.Writer

	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// NewStdioTransport creates a transport over os.Stdin and os.Stdout.
func NewStdioTransport() *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a transport over r and w.
func NewStdioTransportWithIO(r io.Reader, w io.Writer) *StdioTransport {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &StdioTransport{
		id:      "stdio",
		scanner: scanner,
		writer:  w,
		done:    make(chan struct{}),
	}
}

// ID returns "stdio".
func (t *StdioTransport) ID() string {
	return t.id
}

// Read returns the next non-empty line. It returns io.EOF at end of input.
func (t *StdioTransport) Read(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-t.done:
			return nil, ErrTransportClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		line := trimCR(t.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer.
		return append([]byte(nil), line...), nil
	}
}

// Write writes data followed by a newline.
func (t *StdioTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := t.writer.Write(append(data, '\n'))
	return err
}

// Close marks the transport closed. The underlying streams are left open.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return nil
}

// Done is closed once Close has been called.
func (t *StdioTransport) Done() <-chan struct{} {
	return t.done
}

// Info returns the transport type.
func (t *StdioTransport) Info() Info {
	return Info{Type: "stdio"}
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
