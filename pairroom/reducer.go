package pairroom

import "time"

// Reduce applies one room event to a state snapshot and returns the next
// snapshot. It is pure and total: no I/O, no panics, and any event it cannot
// apply is a no-op. receivedAt is the local arrival time, used to timestamp
// chat entries; the transcript is ordered by arrival, not by sender clocks.
//
// Replaying an ordered event history from NewGameState reproduces the
// current state, which is what makes resynchronization after a reconnect a
// plain replay. Boolean and set-membership effects are idempotent: applying
// the same event twice equals applying it once.
func Reduce(s GameState, ev RoomEvent, receivedAt time.Time) GameState {
	next := s.clone()
	side := next.side(ev.Sender())
	if side == nil {
		return next
	}

	switch e := ev.(type) {
	case CategoryFixed:
		side.FixedCategory = e.Category
	case CategoryCompleted:
		side.Completed = addCategory(side.Completed, e.Category)
	case CategoryUncompleted:
		side.Completed = removeCategory(side.Completed, e.Category)
	case ProgressUpdated:
		// Out-of-range values are rejected at both the send and decode
		// boundaries; a reducer never fails, so anything that slips
		// through is dropped here.
		if e.Progress >= 0 && e.Progress <= 100 {
			side.Progress = e.Progress
		}
	case ImageUploaded:
		// Image accounting is external; the event reaches subscribers via
		// the message callback without touching the snapshot.
	case IsReady:
		side.Ready = true
	case NotReady:
		side.Ready = false
	case Say:
		next.Chat = append(next.Chat, ChatMessage{
			Slot:    e.Slot,
			Message: e.Message,
			At:      receivedAt,
		})
	case Ping:
		// liveness only
	case Leave:
		side.Online = false
	case GetIn:
		side.Online = true
	}
	return next
}

// anomalous reports whether ev violates the expected fix-then-complete
// order for its sender, given the state it is about to be applied to. Such
// events are still applied; callers log them.
func anomalous(s GameState, ev RoomEvent) bool {
	e, ok := ev.(CategoryCompleted)
	if !ok {
		return false
	}
	var side SideState
	switch e.Slot {
	case s.MySlot:
		side = s.Me
	case s.PartnerSlot:
		side = s.Partner
	default:
		return false
	}
	return side.FixedCategory != e.Category
}
