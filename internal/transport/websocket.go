package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultWriteTimeout     = 15 * time.Second
	DefaultReadTimeout      = 90 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultMaxMessageSize is 1MB.
	DefaultMaxMessageSize = 1024 * 1024

	// Keepalive
	DefaultPingInterval = 30 * time.Second
	DefaultPongTimeout  = 60 * time.Second
)

// WebSocketTransport implements Transport over a gorilla WebSocket connection.
type WebSocketTransport struct {
	id   string
	conn *websocket.Conn

	writeTimeout time.Duration
	readTimeout  time.Duration
	pingInterval time.Duration

	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// WebSocketOption configures a WebSocketTransport.
type WebSocketOption func(*WebSocketTransport)

// WithWriteTimeout sets the per-frame write timeout.
func WithWriteTimeout(d time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) {
		if d > 0 {
			t.writeTimeout = d
		}
	}
}

// WithReadTimeout sets how long Read waits for a frame.
func WithReadTimeout(d time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) {
		if d > 0 {
			t.readTimeout = d
		}
	}
}

// WithPingInterval sets the keepalive ping interval. Zero disables pings.
func WithPingInterval(d time.Duration) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.pingInterval = d
	}
}

// WithTransportID sets a custom ID for the transport.
func WithTransportID(id string) WebSocketOption {
	return func(t *WebSocketTransport) {
		t.id = id
	}
}

// Dial opens a WebSocket connection to url and wraps it in a transport.
// The handshake is bounded by ctx and by DefaultHandshakeTimeout.
func Dial(ctx context.Context, url string, header http.Header, opts ...WebSocketOption) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect to %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	return NewWebSocketTransport(conn, opts...), nil
}

// NewWebSocketTransport wraps an established connection.
func NewWebSocketTransport(conn *websocket.Conn, opts ...WebSocketOption) *WebSocketTransport {
	t := &WebSocketTransport{
		id:           GenerateID(),
		conn:         conn,
		writeTimeout: DefaultWriteTimeout,
		readTimeout:  DefaultReadTimeout,
		pingInterval: DefaultPingInterval,
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(t)
	}

	conn.SetReadLimit(DefaultMaxMessageSize)
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(DefaultPongTimeout))
		return nil
	})

	if t.pingInterval > 0 {
		go t.pingLoop()
	}

	return t
}

func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// ID returns the transport ID.
func (t *WebSocketTransport) ID() string {
	return t.id
}

// Read returns the next text frame.
func (t *WebSocketTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-t.done:
		return nil, ErrTransportClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	deadline := time.Now().Add(t.readTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = t.conn.SetReadDeadline(deadline)

	messageType, data, err := t.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		return nil, err
	}
	if messageType != websocket.TextMessage {
		return nil, ErrBinaryFrame
	}

	return data, nil
}

// Write sends data as a text frame.
func (t *WebSocketTransport) Write(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	deadline := time.Now().Add(t.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = t.conn.SetWriteDeadline(deadline)

	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal-closure frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)

	_ = t.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return t.conn.Close()
}

// Done is closed once Close has been called.
func (t *WebSocketTransport) Done() <-chan struct{} {
	return t.done
}

// Info returns the connection addresses.
func (t *WebSocketTransport) Info() Info {
	return Info{
		Type:       "websocket",
		RemoteAddr: t.conn.RemoteAddr().String(),
		LocalAddr:  t.conn.LocalAddr().String(),
	}
}
