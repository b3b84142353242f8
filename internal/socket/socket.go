// Package socket is a minimal callback-driven realtime socket client.
//
// It decodes incoming frames, routes replies to pending requests and fans
// messages out to registered callbacks. Every callback registered with
// OnOpen, OnClose, OnError and OnMessage runs on a single goroutine, in the
// order the underlying transport produced the events. Reconnection and
// channel rejoin are left to the caller.
package socket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/phxstream/internal/domain"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
	"github.com/brianly1003/phxstream/internal/transport"
)

const (
	// DefaultTimeout bounds joins, leaves and pushes issued with a zero timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultHeartbeatInterval matches the server's idle timeout expectations.
	DefaultHeartbeatInterval = 30 * time.Second

	heartbeatTopic = "phoenix"
	heartbeatEvent = "heartbeat"
)

// Dialer opens the transport a Socket runs over.
type Dialer func(ctx context.Context) (transport.Transport, error)

// Socket implements ports.Socket over a transport.Transport.
type Socket struct {
	dial              Dialer
	logger            *zerolog.Logger
	defaultTimeout    time.Duration
	heartbeatInterval time.Duration
	encode            func(events.Message) ([]byte, error)

	mu         sync.Mutex
	tr         transport.Transport
	cancel     context.CancelFunc
	done       chan struct{}
	connecting bool
	closing    bool
	nextRef    uint64
	pending    map[string]*Push
	channels   map[string]*Channel
	onOpen     []func()
	onClose    []func()
	onError    []func(error)
	onMessage  []func(events.Message)
}

// Option configures a Socket.
type Option func(*Socket)

// WithLogger sets the logger. The global logger is used by default.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Socket) {
		s.logger = logger
	}
}

// WithDefaultTimeout sets the timeout used for requests issued with a zero timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Socket) {
		if d > 0 {
			s.defaultTimeout = d
		}
	}
}

// WithHeartbeatInterval sets the heartbeat interval. Zero disables heartbeats.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Socket) {
		s.heartbeatInterval = d
	}
}

// WithVSN selects the frame serializer. Unknown versions keep the 2.0.0 array form.
func WithVSN(vsn string) Option {
	return func(s *Socket) {
		encode, err := encoderFor(vsn)
		if err != nil {
			s.logger.Warn().Err(err).Msg("keeping default serializer")
			return
		}
		s.encode = encode
	}
}

// New creates a disconnected socket that will use dial to connect.
func New(dial Dialer, opts ...Option) *Socket {
	s := &Socket{
		dial:              dial,
		logger:            &log.Logger,
		defaultTimeout:    DefaultTimeout,
		heartbeatInterval: DefaultHeartbeatInterval,
		encode:            Encode,
		pending:           make(map[string]*Push),
		channels:          make(map[string]*Channel),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnOpen registers callback for every successful Connect.
func (s *Socket) OnOpen(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = append(s.onOpen, callback)
}

// OnClose registers callback for every time the connection goes away.
func (s *Socket) OnClose(callback func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = append(s.onClose, callback)
}

// OnError registers callback for transport failures.
func (s *Socket) OnError(callback func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = append(s.onError, callback)
}

// OnMessage registers callback for every decoded message.
func (s *Socket) OnMessage(callback func(events.Message)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = append(s.onMessage, callback)
}

// Connect dials the transport, fires the open callbacks and starts reading.
// It returns nil if already connected, and an error wrapping
// domain.ErrConnectInProgress while another Connect is dialing.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.tr != nil {
		s.mu.Unlock()
		return nil
	}
	if s.connecting {
		s.mu.Unlock()
		return domain.NewSocketError("connect", domain.ErrConnectInProgress)
	}
	s.connecting = true
	s.mu.Unlock()

	tr, err := s.dial(ctx)
	if err != nil {
		s.mu.Lock()
		s.connecting = false
		s.mu.Unlock()
		return domain.NewSocketError("connect", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.tr = tr
	s.cancel = cancel
	s.done = done
	s.connecting = false
	s.closing = false
	openCbs := append([]func(){}, s.onOpen...)
	s.mu.Unlock()

	s.logger.Info().Str("transport_id", tr.ID()).Msg("socket connected")
	for _, cb := range openCbs {
		cb()
	}

	go s.readLoop(readCtx, tr, done)
	if s.heartbeatInterval > 0 {
		go s.heartbeatLoop(readCtx)
	}
	return nil
}

// Disconnect closes the connection and waits for the read loop to finish.
// The close callbacks fire; the error callbacks do not.
func (s *Socket) Disconnect() error {
	s.mu.Lock()
	tr, cancel, done := s.tr, s.cancel, s.done
	if tr == nil {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.mu.Unlock()

	cancel()
	err := tr.Close()
	<-done
	return err
}

// Connected reports whether the socket currently has a transport.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr != nil
}

// Done is closed when the current connection's read loop exits.
// It returns nil before the first Connect.
func (s *Socket) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Channel returns the channel for topic, creating it on first use.
func (s *Socket) Channel(topic string) *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.channels[topic]; ok {
		return ch
	}
	ch := newChannel(s, topic)
	s.channels[topic] = ch
	return ch
}

func (s *Socket) makeRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRef++
	return strconv.FormatUint(s.nextRef, 10)
}

// send encodes msg, registers p as pending under msg.Ref and writes the frame.
// A write failure resolves p as an error reply.
func (s *Socket) send(ctx context.Context, msg events.Message, p *Push) {
	s.mu.Lock()
	tr := s.tr
	if p != nil {
		s.pending[msg.Ref] = p
	}
	s.mu.Unlock()

	var err error
	if tr == nil {
		err = domain.NewSocketError("send", domain.ErrNotConnected)
	} else {
		var data []byte
		if data, err = s.encode(msg); err == nil {
			err = tr.Write(ctx, data)
		}
	}
	if err == nil {
		return
	}

	s.logger.Warn().Err(err).Str("topic", msg.Topic).Str("event", msg.Event).Msg("failed to send frame")
	if p != nil {
		s.forget(msg.Ref)
		p.resolve(events.ReplyStatusError, events.Payload{"reason": err.Error()})
	}
}

func (s *Socket) forget(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, ref)
}

func (s *Socket) readLoop(ctx context.Context, tr transport.Transport, done chan struct{}) {
	defer close(done)

	for {
		data, err := tr.Read(ctx)
		if err != nil {
			s.handleReadError(tr, err)
			return
		}

		msg, err := Decode(data)
		if err != nil {
			s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping undecodable frame")
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Socket) handleReadError(tr transport.Transport, err error) {
	s.mu.Lock()
	closing := s.closing
	cancel := s.cancel
	s.tr = nil
	s.cancel = nil
	errCbs := append([]func(error){}, s.onError...)
	closeCbs := append([]func(){}, s.onClose...)
	s.mu.Unlock()

	// Stops the heartbeat loop of this connection.
	if cancel != nil {
		cancel()
	}
	_ = tr.Close()

	clean := closing || errors.Is(err, io.EOF) || errors.Is(err, transport.ErrTransportClosed) ||
		errors.Is(err, context.Canceled)
	if !clean {
		s.logger.Error().Err(err).Str("transport_id", tr.ID()).Msg("socket read failed")
		wrapped := fmt.Errorf("socket read: %w", err)
		for _, cb := range errCbs {
			cb(wrapped)
		}
	} else {
		s.logger.Info().Str("transport_id", tr.ID()).Msg("socket closed")
	}

	for _, cb := range closeCbs {
		cb()
	}
}

// dispatch routes a reply to its pending request, then hands msg to the
// channel for its topic and to every message callback.
func (s *Socket) dispatch(msg events.Message) {
	s.mu.Lock()
	var p *Push
	if msg.IsReply() && msg.Ref != "" {
		p = s.pending[msg.Ref]
		delete(s.pending, msg.Ref)
	}
	ch := s.channels[msg.Topic]
	msgCbs := append([]func(events.Message){}, s.onMessage...)
	s.mu.Unlock()

	s.logger.Debug().
		Str("topic", msg.Topic).
		Str("event", msg.Event).
		Str("ref", msg.Ref).
		Msg("message received")

	if p != nil {
		p.resolveReply(msg)
	}
	if ch != nil {
		ch.trigger(msg)
	}
	for _, cb := range msgCbs {
		cb(msg)
	}
}

func (s *Socket) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(s.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ref := s.makeRef()
			s.send(ctx, events.Message{
				Ref:   ref,
				Topic: heartbeatTopic,
				Event: heartbeatEvent,
			}, nil)
		}
	}
}

var _ ports.Socket = (*Socket)(nil)
