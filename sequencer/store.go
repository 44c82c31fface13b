package sequencer

import (
	"math/big"

	"golang.org/x/exp/slices"
)

// pendingEvent is one callback waiting in a timeslot.
type pendingEvent struct {
	at      *big.Rat
	control *Control
	fn      func()
}

// timeslot holds the events due at one exact position, in insertion order.
type timeslot struct {
	at     *big.Rat
	events []*pendingEvent
}

// timeslotStore is an ordered map from position to timeslot. Slots are popped whole
// before they are executed, so an insertion at the position being drained lands in a
// fresh slot that the drain loop picks up next, after everything already queued there.
type timeslotStore struct {
	keys  []*big.Rat
	slots map[string]*timeslot
	size  int
}

func newTimeslotStore() *timeslotStore {
	return &timeslotStore{slots: make(map[string]*timeslot)}
}

func (s *timeslotStore) add(e *pendingEvent) {
	key := e.at.RatString()
	slot, ok := s.slots[key]
	if !ok {
		slot = &timeslot{at: e.at}
		s.slots[key] = slot
		i, _ := slices.BinarySearchFunc(s.keys, e.at, (*big.Rat).Cmp)
		s.keys = slices.Insert(s.keys, i, e.at)
	}
	slot.events = append(slot.events, e)
	s.size++
}

// first returns the earliest pending position, or nil.
func (s *timeslotStore) first() *big.Rat {
	if len(s.keys) == 0 {
		return nil
	}
	return s.keys[0]
}

// popUpTo removes and returns the earliest slot if its position is <= limit.
func (s *timeslotStore) popUpTo(limit *big.Rat) *timeslot {
	if len(s.keys) == 0 || s.keys[0].Cmp(limit) > 0 {
		return nil
	}
	key := s.keys[0].RatString()
	slot := s.slots[key]
	delete(s.slots, key)
	s.keys = slices.Delete(s.keys, 0, 1)
	s.size -= len(slot.events)
	return slot
}

// removeIf drops every pending event matching drop, and any slot left empty.
func (s *timeslotStore) removeIf(drop func(e *pendingEvent) bool) int {
	removed := 0
	kept := s.keys[:0]
	for _, at := range s.keys {
		key := at.RatString()
		slot := s.slots[key]
		events := slot.events[:0]
		for _, e := range slot.events {
			if drop(e) {
				removed++
				continue
			}
			events = append(events, e)
		}
		slot.events = events
		if len(events) == 0 {
			delete(s.slots, key)
			continue
		}
		kept = append(kept, at)
	}
	s.keys = kept
	s.size -= removed
	return removed
}

// positions returns a copy of the pending positions in ascending order.
func (s *timeslotStore) positions() []*big.Rat {
	out := slices.Clone(s.keys)
	for i, at := range out {
		out[i] = new(big.Rat).Set(at)
	}
	return out
}

func (s *timeslotStore) len() int {
	return s.size
}

func (s *timeslotStore) empty() bool {
	return s.size == 0
}

func (s *timeslotStore) clear() {
	s.keys = nil
	s.slots = make(map[string]*timeslot)
	s.size = 0
}
