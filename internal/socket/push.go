package socket

import (
	"sync"
	"time"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
)

// Push is an in-flight request. It resolves exactly once, with "ok" or "error"
// from the server's reply or with "timeout" when no reply arrives in time.
// Callbacks registered after resolution are replayed when their status matches.
type Push struct {
	socket  *Socket
	msg     events.Message
	timeout time.Duration

	mu       sync.Mutex
	hooks    map[string][]func(events.Message)
	resolved bool
	status   string
	reply    events.Message
	timer    *time.Timer
}

func newPush(s *Socket, msg events.Message, timeout time.Duration) *Push {
	return &Push{
		socket:  s,
		msg:     msg,
		timeout: timeout,
		hooks:   make(map[string][]func(events.Message)),
	}
}

// Ref returns the request ref.
func (p *Push) Ref() string {
	return p.msg.Ref
}

// Receive registers callback for status.
func (p *Push) Receive(status string, callback func(events.Message)) {
	p.mu.Lock()
	if p.resolved {
		replay := p.status == status
		reply := p.reply
		p.mu.Unlock()
		if replay {
			callback(reply)
		}
		return
	}
	p.hooks[status] = append(p.hooks[status], callback)
	p.mu.Unlock()
}

func (p *Push) startTimeout() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timer = time.AfterFunc(p.timeout, func() {
		p.socket.forget(p.msg.Ref)
		p.resolve(events.ReplyStatusTimeout, events.Payload{})
	})
}

// resolveReply resolves p with a phx_reply received from the server.
func (p *Push) resolveReply(reply events.Message) {
	status := reply.Status()
	if status == "" {
		status = events.ReplyStatusError
	}
	p.settle(status, reply)
}

// resolve resolves p locally with a synthesized reply.
func (p *Push) resolve(status string, response events.Payload) {
	p.settle(status, events.Message{
		JoinRef: p.msg.JoinRef,
		Ref:     p.msg.Ref,
		Topic:   p.msg.Topic,
		Event:   events.ChannelEventReply,
		Payload: events.Payload{
			"status":   status,
			"response": response,
		},
	})
}

func (p *Push) settle(status string, reply events.Message) {
	p.mu.Lock()
	if p.resolved {
		p.mu.Unlock()
		return
	}
	p.resolved = true
	p.status = status
	p.reply = reply
	if p.timer != nil {
		p.timer.Stop()
	}
	cbs := p.hooks[status]
	p.hooks = nil
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(reply)
	}
}

var _ ports.PendingRequest = (*Push)(nil)
