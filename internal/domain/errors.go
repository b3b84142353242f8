// Package domain contains domain errors used throughout the application.
package domain

import (
	"errors"
	"fmt"

	"github.com/brianly1003/phxstream/internal/domain/events"
)

// Sentinel errors for common error conditions.
var (
	ErrPushRejected      = errors.New("push rejected")
	ErrPushTimedOut      = errors.New("push timed out")
	ErrSocketClosed      = errors.New("socket is closed")
	ErrNotConnected      = errors.New("socket is not connected")
	ErrConnectInProgress = errors.New("socket connect already in progress")
	ErrInvalidFrame      = errors.New("invalid frame")
	ErrHubNotRunning     = errors.New("event hub is not running")
	ErrSubscriberClosed  = errors.New("subscriber is closed")
)

// PushErrorKind identifies which terminal outcome failed a pending request.
type PushErrorKind int

const (
	// Rejected means the server answered with an explicit "error" reply.
	Rejected PushErrorKind = iota + 1

	// TimedOut means no reply arrived within the collaborator's timeout window.
	TimedOut
)

// String returns the kind name.
func (k PushErrorKind) String() string {
	switch k {
	case Rejected:
		return "rejected"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("PushErrorKind(%d)", int(k))
	}
}

// PushError is the failure delivered by join, leave and push result streams.
// Reply carries the message that accompanied the terminal callback.
type PushError struct {
	Kind  PushErrorKind
	Reply events.Message
}

func (e *PushError) Error() string {
	if e.Reply.Event != "" {
		return fmt.Sprintf("%v: %s %s", e.Unwrap(), e.Reply.Topic, e.Reply.Event)
	}
	return e.Unwrap().Error()
}

func (e *PushError) Unwrap() error {
	if e.Kind == TimedOut {
		return ErrPushTimedOut
	}
	return ErrPushRejected
}

// NewRejectedError creates a PushError for an "error" reply.
func NewRejectedError(reply events.Message) *PushError {
	return &PushError{Kind: Rejected, Reply: reply}
}

// NewTimedOutError creates a PushError for a "timeout" reply.
func NewTimedOutError(reply events.Message) *PushError {
	return &PushError{Kind: TimedOut, Reply: reply}
}

// SocketError represents an error from socket operations.
type SocketError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error {
	return e.Err
}

// NewSocketError creates a new SocketError.
func NewSocketError(op string, err error) *SocketError {
	return &SocketError{
		Op:  op,
		Err: err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
