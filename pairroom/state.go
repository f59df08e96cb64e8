package pairroom

// ConnectionState represents the current state of the room connection.
type ConnectionState int

const (
	// StateDisconnected means the session has not been connected yet.
	StateDisconnected ConnectionState = iota

	// StateConnecting means the session is establishing a connection.
	StateConnecting

	// StateConnected means the session is connected and ready.
	StateConnected

	// StateReconnecting means the session lost its transport and is waiting
	// out a backoff delay before redialing.
	StateReconnecting

	// StateClosed means the session has been explicitly closed. Terminal.
	StateClosed
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateEvent represents a connection-state change.
type StateEvent struct {
	OldState ConnectionState
	NewState ConnectionState
	Error    error // cause of the change, if any
}
