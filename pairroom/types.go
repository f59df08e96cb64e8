package pairroom

import "time"

// Slot identifies one of the two fixed participant positions in a room.
type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

// Valid reports whether the slot is one of the two known positions.
func (s Slot) Valid() bool {
	return s == SlotA || s == SlotB
}

// Other returns the complementary slot.
func (s Slot) Other() Slot {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

// Role is a display label mapped 1:1 to a slot. It is never used for
// protocol routing.
type Role string

const (
	RoleGirlfriend Role = "girlfriend"
	RoleBoyfriend  Role = "boyfriend"
	RolePartner    Role = "partner"
)

// RoleFor returns the display role for a slot. Unknown slots get the
// generic partner label.
func RoleFor(s Slot) Role {
	switch s {
	case SlotA:
		return RoleGirlfriend
	case SlotB:
		return RoleBoyfriend
	default:
		return RolePartner
	}
}

// ChatMessage is one entry of the room transcript. At is the local receipt
// time; transcript order is arrival order, embedded sender clocks are not
// trusted.
type ChatMessage struct {
	Slot    Slot      `json:"slot"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// UploadedImage carries metadata for a single submitted image. The payload
// is opaque to the SDK; producing and storing it is the host application's
// concern.
type UploadedImage struct {
	Category         string  `json:"category"`
	FileName         string  `json:"file_name"`
	Data             string  `json:"data,omitempty"`
	OriginalSize     int64   `json:"original_size"`
	CompressedSize   int64   `json:"compressed_size"`
	CompressionRatio float64 `json:"compression_ratio"`
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	CapturedAt       int64   `json:"captured_at"`
	Uploaded         bool    `json:"uploaded"`
}
