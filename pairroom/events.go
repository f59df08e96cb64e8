package pairroom

import "encoding/json"

const (
	eventCategoryFixed       = "category_fixed"
	eventCategoryCompleted   = "category_completed"
	eventCategoryUncompleted = "category_uncompleted"
	eventProgressUpdated     = "progress_updated"
	eventImageUploaded       = "image_uploaded"
	eventIsReady             = "is_ready"
	eventNotReady            = "not_ready"
	eventSay                 = "say"
	eventPing                = "ping"
	eventLeave               = "leave"
	eventGetIn               = "get_in"
)

// RoomEvent is one message of the room protocol. The variant set is closed:
// every event the wire can carry is one of the concrete types below, and the
// reducer handles all of them exhaustively.
type RoomEvent interface {
	// Type returns the wire tag of the variant.
	Type() string
	// Sender returns the slot the event originates from.
	Sender() Slot

	isRoomEvent()
}

// CategoryFixed commits the sender to a category.
type CategoryFixed struct {
	Slot     Slot
	Category string
}

// CategoryCompleted marks a category as completed by the sender.
type CategoryCompleted struct {
	Slot     Slot
	Category string
}

// CategoryUncompleted removes a category from the sender's completed set.
type CategoryUncompleted struct {
	Slot     Slot
	Category string
}

// ProgressUpdated sets the sender's progress percentage.
type ProgressUpdated struct {
	Slot     Slot
	Progress int
}

// ImageUploaded announces a submitted image. It carries metadata only; the
// reducer does not fold it into the game state.
type ImageUploaded struct {
	Slot  Slot
	Image UploadedImage
}

// IsReady flags the sender as ready.
type IsReady struct {
	Slot Slot
}

// NotReady clears the sender's readiness.
type NotReady struct {
	Slot Slot
}

// Say appends a chat message. SentAt is the sender's clock in unix
// milliseconds; it is display-only and never used for transcript ordering.
type Say struct {
	Slot    Slot
	Message string
	SentAt  int64
}

// Ping is a liveness signal; it mutates nothing.
type Ping struct {
	Slot Slot
}

// Leave marks the sender as disconnected from the room.
type Leave struct {
	Slot Slot
}

// GetIn marks the sender as present in the room.
type GetIn struct {
	Slot Slot
}

func (e CategoryFixed) Type() string       { return eventCategoryFixed }
func (e CategoryCompleted) Type() string   { return eventCategoryCompleted }
func (e CategoryUncompleted) Type() string { return eventCategoryUncompleted }
func (e ProgressUpdated) Type() string     { return eventProgressUpdated }
func (e ImageUploaded) Type() string       { return eventImageUploaded }
func (e IsReady) Type() string             { return eventIsReady }
func (e NotReady) Type() string            { return eventNotReady }
func (e Say) Type() string                 { return eventSay }
func (e Ping) Type() string                { return eventPing }
func (e Leave) Type() string               { return eventLeave }
func (e GetIn) Type() string               { return eventGetIn }

func (e CategoryFixed) Sender() Slot       { return e.Slot }
func (e CategoryCompleted) Sender() Slot   { return e.Slot }
func (e CategoryUncompleted) Sender() Slot { return e.Slot }
func (e ProgressUpdated) Sender() Slot     { return e.Slot }
func (e ImageUploaded) Sender() Slot       { return e.Slot }
func (e IsReady) Sender() Slot             { return e.Slot }
func (e NotReady) Sender() Slot            { return e.Slot }
func (e Say) Sender() Slot                 { return e.Slot }
func (e Ping) Sender() Slot                { return e.Slot }
func (e Leave) Sender() Slot               { return e.Slot }
func (e GetIn) Sender() Slot               { return e.Slot }

func (CategoryFixed) isRoomEvent()       {}
func (CategoryCompleted) isRoomEvent()   {}
func (CategoryUncompleted) isRoomEvent() {}
func (ProgressUpdated) isRoomEvent()     {}
func (ImageUploaded) isRoomEvent()       {}
func (IsReady) isRoomEvent()             {}
func (NotReady) isRoomEvent()            {}
func (Say) isRoomEvent()                 {}
func (Ping) isRoomEvent()                {}
func (Leave) isRoomEvent()               {}
func (GetIn) isRoomEvent()               {}

// wireEvent is the flat discriminated envelope on the wire:
// {"type": ..., "slot": ..., variant fields}.
type wireEvent struct {
	Type     string         `json:"type"`
	Slot     Slot           `json:"slot"`
	Category string         `json:"category,omitempty"`
	Progress *int           `json:"progress,omitempty"`
	Image    *UploadedImage `json:"image,omitempty"`
	Message  *string        `json:"message,omitempty"`
	SentAt   int64          `json:"sent_at,omitempty"`
}

// EncodeEvent serializes an event into its wire envelope.
func EncodeEvent(ev RoomEvent) ([]byte, error) {
	w := wireEvent{Type: ev.Type(), Slot: ev.Sender()}
	switch e := ev.(type) {
	case CategoryFixed:
		w.Category = e.Category
	case CategoryCompleted:
		w.Category = e.Category
	case CategoryUncompleted:
		w.Category = e.Category
	case ProgressUpdated:
		p := e.Progress
		w.Progress = &p
	case ImageUploaded:
		img := e.Image
		w.Image = &img
	case Say:
		msg := e.Message
		w.Message = &msg
		w.SentAt = e.SentAt
	case IsReady, NotReady, Ping, Leave, GetIn:
		// tag and slot only
	default:
		return nil, NewError(ErrorSerialization, "unknown event variant "+ev.Type())
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, WrapError(ErrorSerialization, "marshal event", err)
	}
	return data, nil
}

// DecodeEvent parses a wire envelope into its event variant. An unknown tag,
// a missing required field, a slot outside {a,b} or an out-of-domain value
// yields a malformed-event error; no variant is ever built from defaults.
func DecodeEvent(data []byte) (RoomEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, WrapError(ErrorMalformedEvent, "unparseable event", err)
	}
	if !w.Slot.Valid() {
		return nil, NewError(ErrorMalformedEvent, "invalid slot "+string(w.Slot))
	}

	switch w.Type {
	case eventCategoryFixed, eventCategoryCompleted, eventCategoryUncompleted:
		if w.Category == "" {
			return nil, NewError(ErrorMalformedEvent, w.Type+" without category")
		}
		switch w.Type {
		case eventCategoryFixed:
			return CategoryFixed{Slot: w.Slot, Category: w.Category}, nil
		case eventCategoryCompleted:
			return CategoryCompleted{Slot: w.Slot, Category: w.Category}, nil
		default:
			return CategoryUncompleted{Slot: w.Slot, Category: w.Category}, nil
		}
	case eventProgressUpdated:
		if w.Progress == nil {
			return nil, NewError(ErrorMalformedEvent, "progress_updated without progress")
		}
		if *w.Progress < 0 || *w.Progress > 100 {
			return nil, NewError(ErrorMalformedEvent, "progress out of range")
		}
		return ProgressUpdated{Slot: w.Slot, Progress: *w.Progress}, nil
	case eventImageUploaded:
		if w.Image == nil {
			return nil, NewError(ErrorMalformedEvent, "image_uploaded without image")
		}
		return ImageUploaded{Slot: w.Slot, Image: *w.Image}, nil
	case eventIsReady:
		return IsReady{Slot: w.Slot}, nil
	case eventNotReady:
		return NotReady{Slot: w.Slot}, nil
	case eventSay:
		if w.Message == nil {
			return nil, NewError(ErrorMalformedEvent, "say without message")
		}
		return Say{Slot: w.Slot, Message: *w.Message, SentAt: w.SentAt}, nil
	case eventPing:
		return Ping{Slot: w.Slot}, nil
	case eventLeave:
		return Leave{Slot: w.Slot}, nil
	case eventGetIn:
		return GetIn{Slot: w.Slot}, nil
	default:
		return nil, NewError(ErrorMalformedEvent, "unknown event type "+w.Type)
	}
}

// ValidateEvent checks the fields a client can get wrong when constructing
// an event locally. It mirrors the decode-side domain checks so invalid
// events are rejected before transmission.
func ValidateEvent(ev RoomEvent) error {
	if !ev.Sender().Valid() {
		return NewError(ErrorValidation, "invalid slot "+string(ev.Sender()))
	}
	switch e := ev.(type) {
	case CategoryFixed:
		if e.Category == "" {
			return NewError(ErrorValidation, "empty category")
		}
	case CategoryCompleted:
		if e.Category == "" {
			return NewError(ErrorValidation, "empty category")
		}
	case CategoryUncompleted:
		if e.Category == "" {
			return NewError(ErrorValidation, "empty category")
		}
	case ProgressUpdated:
		if e.Progress < 0 || e.Progress > 100 {
			return NewError(ErrorValidation, "progress out of range")
		}
	case ImageUploaded:
		if e.Image.Category == "" {
			return NewError(ErrorValidation, "image without category")
		}
	}
	return nil
}
