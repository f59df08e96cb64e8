package pairroom

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// ErrorUnknown is the zero value; it should not appear in practice.
	ErrorUnknown ErrorCode = iota

	// ErrorMalformedEvent marks an inbound message that failed decoding or
	// domain validation. Malformed events are dropped and logged, never fatal.
	ErrorMalformedEvent

	// ErrorTransport marks a connection-level failure (dial error, dropped
	// socket, heartbeat timeout). Transport errors drive reconnection, they
	// are never surfaced to subscribers as exceptions.
	ErrorTransport

	// ErrorValidation marks a locally constructed event rejected at the send
	// boundary before transmission.
	ErrorValidation

	// ErrorConfiguration marks missing or contradictory session parameters,
	// surfaced synchronously from Connect.
	ErrorConfiguration

	// ErrorNotConnected marks an operation that requires a live session.
	ErrorNotConnected

	// ErrorTimeout marks an operation that exceeded its deadline.
	ErrorTimeout

	// ErrorSerialization marks an encode/marshal failure.
	ErrorSerialization

	// ErrorClosed marks use of a session after Close.
	ErrorClosed
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorMalformedEvent:
		return "malformed_event"
	case ErrorTransport:
		return "transport_error"
	case ErrorValidation:
		return "validation_error"
	case ErrorConfiguration:
		return "configuration_error"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorTimeout:
		return "timeout"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown_code_%d", int(e))
	}
}

// RoomError is a structured error with code and context.
type RoomError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *RoomError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *RoomError) Unwrap() error {
	return e.Wrapped
}

// Is matches RoomErrors by code.
func (e *RoomError) Is(target error) bool {
	t, ok := target.(*RoomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a RoomError with the given code and message.
func NewError(code ErrorCode, message string) *RoomError {
	return &RoomError{Code: code, Message: message}
}

// WrapError wraps an existing error with a RoomError.
func WrapError(code ErrorCode, message string, err error) *RoomError {
	return &RoomError{Code: code, Message: message, Wrapped: err}
}

func codeOf(err error) ErrorCode {
	var re *RoomError
	if errors.As(err, &re) {
		return re.Code
	}
	return ErrorUnknown
}

// IsMalformedEvent reports whether err is a decode/validation failure of an
// inbound message.
func IsMalformedEvent(err error) bool {
	return codeOf(err) == ErrorMalformedEvent
}

// IsTransportError reports whether err is a connection-level failure.
func IsTransportError(err error) bool {
	c := codeOf(err)
	return c == ErrorTransport || c == ErrorTimeout || c == ErrorNotConnected
}

// IsValidationError reports whether err was rejected at the send boundary.
func IsValidationError(err error) bool {
	return codeOf(err) == ErrorValidation
}
