package events

// Payload is the decoded body of a channel message.
type Payload map[string]any

// Channel lifecycle event names used by the realtime server.
const (
	ChannelEventClose = "phx_close"
	ChannelEventError = "phx_error"
	ChannelEventJoin  = "phx_join"
	ChannelEventReply = "phx_reply"
	ChannelEventLeave = "phx_leave"
)

// Reply statuses a pending request can resolve with.
const (
	ReplyStatusOK      = "ok"
	ReplyStatusError   = "error"
	ReplyStatusTimeout = "timeout"
)

// Message is a single envelope received on a socket or channel.
type Message struct {
	JoinRef string  `json:"join_ref,omitempty"`
	Ref     string  `json:"ref,omitempty"`
	Topic   string  `json:"topic"`
	Event   string  `json:"event"`
	Payload Payload `json:"payload"`
}

// Status returns the reply status carried by a phx_reply payload, if any.
func (m Message) Status() string {
	if m.Payload == nil {
		return ""
	}
	s, _ := m.Payload["status"].(string)
	return s
}

// Response returns the "response" object of a phx_reply payload.
// For any other message the whole payload is returned.
func (m Message) Response() Payload {
	if m.Event != ChannelEventReply {
		return m.Payload
	}
	switch r := m.Payload["response"].(type) {
	case Payload:
		return r
	case map[string]any:
		return Payload(r)
	default:
		return Payload{}
	}
}

// IsReply reports whether the message answers a pending request.
func (m Message) IsReply() bool {
	return m.Event == ChannelEventReply
}
