// Package publishers exposes the callbacks of a socket or channel as streams.
//
// The facades observe their source without owning it: they keep only a weak
// pointer, so building or holding a facade never extends the lifetime of the
// underlying socket or channel. Streams taken from a facade whose source has
// been collected attach as inert subscriptions.
package publishers

import (
	"time"
	"weak"

	"github.com/brianly1003/phxstream/internal/domain/events"
	"github.com/brianly1003/phxstream/internal/domain/ports"
	"github.com/brianly1003/phxstream/internal/stream"
)

// ChannelPublishers builds streams over one channel.
type ChannelPublishers[C any, P interface {
	*C
	ports.Channel
}] struct {
	channel weak.Pointer[C]
}

// ForChannel returns the stream facade for ch.
func ForChannel[C any, P interface {
	*C
	ports.Channel
}](ch P) *ChannelPublishers[C, P] {
	return &ChannelPublishers[C, P]{channel: weak.Make((*C)(ch))}
}

// Alive reports whether the channel is still reachable.
func (p *ChannelPublishers[C, P]) Alive() bool {
	return p.channel.Value() != nil
}

// OnClose streams the channel's phx_close events.
func (p *ChannelPublishers[C, P]) OnClose() stream.Stream[events.Message] {
	return p.On(events.ChannelEventClose)
}

// OnError streams the channel's phx_error events.
func (p *ChannelPublishers[C, P]) OnError() stream.Stream[events.Message] {
	return p.On(events.ChannelEventError)
}

// On streams every occurrence of event on the channel.
func (p *ChannelPublishers[C, P]) On(event string) stream.Stream[events.Message] {
	return stream.EventStream(p.channel.Value(), func(ch *C, deliver func(events.Message)) {
		P(ch).On(event, deliver)
	})
}

// Join asks the channel to join and returns the outcome as a one-shot stream.
// A zero timeout leaves the choice to the channel.
func (p *ChannelPublishers[C, P]) Join(timeout time.Duration) stream.Stream[events.Message] {
	return p.request(events.ChannelEventJoin, func(ch P) ports.PendingRequest {
		return ch.Join(timeout)
	})
}

// Leave asks the channel to leave and returns the outcome as a one-shot stream.
func (p *ChannelPublishers[C, P]) Leave(timeout time.Duration) stream.Stream[events.Message] {
	return p.request(events.ChannelEventLeave, func(ch P) ports.PendingRequest {
		return ch.Leave(timeout)
	})
}

// Push sends event with payload and returns the reply as a one-shot stream.
// Every call sends a new push.
func (p *ChannelPublishers[C, P]) Push(event string, payload events.Payload, timeout time.Duration) stream.Stream[events.Message] {
	return p.request(event, func(ch P) ports.PendingRequest {
		return ch.Push(event, payload, timeout)
	})
}

func (p *ChannelPublishers[C, P]) request(event string, start func(ch P) ports.PendingRequest) stream.Stream[events.Message] {
	ch := p.channel.Value()
	if ch == nil {
		stream.Logger().Debug().Str("event", event).Msg("channel is gone, request not sent")
		return stream.Never[events.Message]()
	}
	return stream.Result(start(P(ch)))
}
