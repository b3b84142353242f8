package socket

import (
	"context"
	"sync"
	"time"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// Channel is one topic on a Socket. It implements ports.Channel.
//
// Join, Leave and Push each send a new request and return immediately; the
// outcome is reported through the returned pending request.
type Channel struct {
	socket *Socket
	topic  string

	mu         sync.Mutex
	bindings   map[string][]func(events.Message)
	joinRef    string
	joinParams events.Payload
}

func newChannel(s *Socket, topic string) *Channel {
	return &Channel{
		socket:   s,
		topic:    topic,
		bindings: make(map[string][]func(events.Message)),
	}
}

// Topic returns the channel topic.
func (c *Channel) Topic() string {
	return c.topic
}

// SetJoinParams sets the payload sent with subsequent joins.
func (c *Channel) SetJoinParams(params events.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joinParams = params
}

// On registers callback for every message with the given event on this topic.
func (c *Channel) On(event string, callback func(events.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[event] = append(c.bindings[event], callback)
}

// Join sends phx_join. The ref of the join becomes the channel's join ref.
func (c *Channel) Join(timeout time.Duration) ports.PendingRequest {
	ref := c.socket.makeRef()

	c.mu.Lock()
	c.joinRef = ref
	params := c.joinParams
	c.mu.Unlock()

	return c.request(events.Message{
		JoinRef: ref,
		Ref:     ref,
		Topic:   c.topic,
		Event:   events.ChannelEventJoin,
		Payload: params,
	}, timeout)
}

// Leave sends phx_leave.
func (c *Channel) Leave(timeout time.Duration) ports.PendingRequest {
	return c.Push(events.ChannelEventLeave, nil, timeout)
}

// Push sends event with payload on the channel.
func (c *Channel) Push(event string, payload events.Payload, timeout time.Duration) ports.PendingRequest {
	c.mu.Lock()
	joinRef := c.joinRef
	c.mu.Unlock()

	return c.request(events.Message{
		JoinRef: joinRef,
		Ref:     c.socket.makeRef(),
		Topic:   c.topic,
		Event:   event,
		Payload: payload,
	}, timeout)
}

func (c *Channel) request(msg events.Message, timeout time.Duration) *Push {
	if timeout <= 0 {
		timeout = c.socket.defaultTimeout
	}

	p := newPush(c.socket, msg, timeout)
	p.startTimeout()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c.socket.send(ctx, msg, p)
	return p
}

// trigger delivers msg to the bindings for its event.
func (c *Channel) trigger(msg events.Message) {
	c.mu.Lock()
	cbs := append([]func(events.Message){}, c.bindings[msg.Event]...)
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(msg)
	}
}

var _ ports.Channel = (*Channel)(nil)
