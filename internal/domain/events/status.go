package events

import "fmt"

// StatusKind enumerates the connection status transitions of a socket.
type StatusKind int

const (
	StatusOpened StatusKind = iota + 1
	StatusClosed
	StatusErrored
)

// String returns the kind name.
func (k StatusKind) String() string {
	switch k {
	case StatusOpened:
		return "opened"
	case StatusClosed:
		return "closed"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// StatusEvent unifies the open, close and error callbacks of a socket.
// Err is only set for StatusErrored.
type StatusEvent struct {
	Kind StatusKind
	Err  error
}

// Opened returns the status event fired when the socket opens.
func Opened() StatusEvent { return StatusEvent{Kind: StatusOpened} }

// Closed returns the status event fired when the socket closes.
func Closed() StatusEvent { return StatusEvent{Kind: StatusClosed} }

// Errored returns the status event fired when the socket reports an error.
func Errored(err error) StatusEvent { return StatusEvent{Kind: StatusErrored, Err: err} }

func (e StatusEvent) String() string {
	if e.Kind == StatusErrored && e.Err != nil {
		return fmt.Sprintf("errored(%v)", e.Err)
	}
	return e.Kind.String()
}
