package pairroom

import "sort"

// SideState is one participant's half of the shared session state.
type SideState struct {
	FixedCategory string
	Completed     []string // sorted, no duplicates
	Progress      int
	Ready         bool
	Online        bool
}

// GameState is an immutable snapshot of the shared session state as seen
// from one slot. It is produced exclusively by Reduce; collaborators never
// mutate it directly.
type GameState struct {
	MySlot      Slot
	PartnerSlot Slot
	Me          SideState
	Partner     SideState

	// Connected reflects this client's transport connectivity, overlaid by
	// the session; room events do not touch it.
	Connected bool

	// Chat is the append-only transcript, ordered by arrival.
	Chat []ChatMessage
}

// NewGameState returns the empty starting state for a session owned by the
// given slot: both sides unset, not ready, offline.
func NewGameState(my Slot) GameState {
	return GameState{MySlot: my, PartnerSlot: my.Other()}
}

// clone deep-copies the snapshot so a reduction never aliases its input.
func (s GameState) clone() GameState {
	next := s
	next.Me.Completed = append([]string(nil), s.Me.Completed...)
	next.Partner.Completed = append([]string(nil), s.Partner.Completed...)
	next.Chat = append([]ChatMessage(nil), s.Chat...)
	return next
}

// side returns the mutable half of the cloned state for slot, or nil if the
// slot is not part of this session.
func (s *GameState) side(slot Slot) *SideState {
	switch slot {
	case s.MySlot:
		return &s.Me
	case s.PartnerSlot:
		return &s.Partner
	default:
		return nil
	}
}

// HasCompleted reports whether the slot's completed set contains category.
func (s GameState) HasCompleted(slot Slot, category string) bool {
	var side SideState
	switch slot {
	case s.MySlot:
		side = s.Me
	case s.PartnerSlot:
		side = s.Partner
	default:
		return false
	}
	i := sort.SearchStrings(side.Completed, category)
	return i < len(side.Completed) && side.Completed[i] == category
}

func addCategory(set []string, category string) []string {
	i := sort.SearchStrings(set, category)
	if i < len(set) && set[i] == category {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = category
	return set
}

func removeCategory(set []string, category string) []string {
	i := sort.SearchStrings(set, category)
	if i >= len(set) || set[i] != category {
		return set
	}
	return append(set[:i], set[i+1:]...)
}
