package cmd

import (
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/phxstream/internal/config"
	"github.com/brianly1003/phxstream/internal/demand"
	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
	"github.com/brianly1003/phxstream/internal/hub"
	"github.com/brianly1003/phxstream/internal/publishers"
	"github.com/brianly1003/phxstream/internal/socket"
	"github.com/brianly1003/phxstream/internal/stream"
)

// pipeline wires a socket's streams into the event hub.
type pipeline struct {
	sock *socket.Socket
	hub  ports.EventHub
	cfg  config.StreamConfig

	handles []stream.Handle
}

func newPipeline(sock *socket.Socket, h ports.EventHub, cfg config.StreamConfig) *pipeline {
	return &pipeline{sock: sock, hub: h, cfg: cfg}
}

// initialDemand maps the configured demand to a Demand; 0 is unlimited.
func initialDemand(n int) demand.Demand {
	if n <= 0 {
		return demand.Unlimited
	}
	return demand.Max(n)
}

// attach subscribes to status and message streams. It must run before the
// socket connects so the first "opened" transition is observed.
func (p *pipeline) attach() {
	sp := publishers.ForSocket(p.sock)
	initial := initialDemand(p.cfg.Demand)
	replenish := demand.Max(p.cfg.Replenish)

	if p.cfg.Status {
		subscribe(p, sp.StatusEvents(), hub.StatusRecord, initial, replenish)
	}

	if len(p.cfg.Topics) == 0 {
		all := stream.Filter(sp.OnMessage(), isChannelMessage)
		subscribe(p, all, hub.MessageRecord, initial, replenish)
		return
	}

	for _, topic := range p.cfg.Topics {
		ch := p.sock.Channel(topic)
		if len(p.cfg.JoinParams) > 0 {
			params := make(events.Payload, len(p.cfg.JoinParams))
			for k, v := range p.cfg.JoinParams {
				params[k] = v
			}
			ch.SetJoinParams(params)
		}

		if len(p.cfg.Events) == 0 {
			onTopic := stream.Filter(sp.OnMessage(), func(m events.Message) bool {
				return m.Topic == topic && isChannelMessage(m)
			})
			subscribe(p, onTopic, hub.MessageRecord, initial, replenish)
			continue
		}

		cp := publishers.ForChannel(ch)
		for _, event := range p.cfg.Events {
			subscribe(p, cp.On(event), hub.MessageRecord, initial, replenish)
		}
	}
}

// subscribe attaches a hub observer to s and opens its initial demand.
func subscribe[T any](p *pipeline, s stream.Stream[T], convert func(T) events.Event, initial, replenish demand.Demand) {
	o := hub.NewObserver(p.hub, convert, replenish)
	h := s.Attach(o)
	h.Request(initial)
	p.handles = append(p.handles, h)
}

// join sends a join for every configured topic and publishes each outcome.
func (p *pipeline) join() {
	for _, topic := range p.cfg.Topics {
		result := publishers.ForChannel(p.sock.Channel(topic)).Join(0)
		subscribe(p, result, hub.ReplyRecord, demand.Max(1), demand.None)
		log.Debug().Str("topic", topic).Msg("join sent")
	}
}

// leave sends a leave for every configured topic without waiting for replies.
func (p *pipeline) leave() {
	for _, topic := range p.cfg.Topics {
		p.sock.Channel(topic).Leave(0)
	}
}

// cancel releases every observer.
func (p *pipeline) cancel() {
	for _, h := range p.handles {
		h.Cancel()
	}
	p.handles = nil
}

// isChannelMessage excludes request replies and heartbeat traffic.
func isChannelMessage(m events.Message) bool {
	return !m.IsReply() && m.Topic != "phoenix"
}
