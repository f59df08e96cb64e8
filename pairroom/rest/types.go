package rest

import (
	"time"

	"github.com/agustinlozano/ur-partner-sdk-go/pairroom"
)

// RoomInfo represents room metadata as returned by the provisioning API.
type RoomInfo struct {
	RoomID    string    `json:"room_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// CreateRoomRequest is the request body for creating a room. The creator
// picks a display role; the server assigns the slot.
type CreateRoomRequest struct {
	Role pairroom.Role `json:"role,omitempty"`
}

// JoinRoomRequest is the request body for joining an existing room.
type JoinRoomRequest struct {
	Role pairroom.Role `json:"role,omitempty"`
}

// JoinResponse carries everything a session needs to connect: the assigned
// slot and the room-scoped websocket endpoint.
type JoinResponse struct {
	RoomID    string        `json:"room_id"`
	Slot      pairroom.Slot `json:"slot"`
	SocketURL string        `json:"socket_url"`
}

// SlotStatus is one slot's occupancy view.
type SlotStatus struct {
	Occupied       bool          `json:"occupied"`
	Role           pairroom.Role `json:"role,omitempty"`
	Ready          bool          `json:"ready"`
	CompletedCount int           `json:"completed_count"`
}

// RoomStatus is the occupancy/readiness view of a room, consumed by
// reveal-gating logic outside the realtime core.
type RoomStatus struct {
	RoomID string     `json:"room_id"`
	SlotA  SlotStatus `json:"slot_a"`
	SlotB  SlotStatus `json:"slot_b"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
