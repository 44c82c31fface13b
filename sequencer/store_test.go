package sequencer

import (
	"testing"

	"github.com/robmorgan/cadence/timing"
	"github.com/stretchr/testify/require"
)

func TestTimeslotStoreOrdering(t *testing.T) {
	t.Parallel()

	s := newTimeslotStore()
	var order []string
	add := func(at string, name string) {
		s.add(&pendingEvent{at: timing.MustParse(at), fn: func() { order = append(order, name) }})
	}
	add("3", "c")
	add("1", "a1")
	add("2", "b")
	add("1", "a2")
	add("4/3", "x")

	require.Equal(t, 5, s.len())
	require.Equal(t, "1", timing.Format(s.first()))

	var positions []string
	for _, p := range s.positions() {
		positions = append(positions, timing.Format(p))
	}
	require.Equal(t, []string{"1", "4/3", "2", "3"}, positions)

	for slot := s.popUpTo(timing.Int(2)); slot != nil; slot = s.popUpTo(timing.Int(2)) {
		for _, e := range slot.events {
			e.fn()
		}
	}
	require.Equal(t, []string{"a1", "a2", "x", "b"}, order)
	require.Equal(t, 1, s.len())
	require.Equal(t, "3", timing.Format(s.first()))
}

func TestTimeslotStoreRemoveIf(t *testing.T) {
	t.Parallel()

	s := newTimeslotStore()
	c := &Control{}
	s.add(&pendingEvent{at: timing.Int(1), control: c})
	s.add(&pendingEvent{at: timing.Int(1)})
	s.add(&pendingEvent{at: timing.Int(2), control: c})

	removed := s.removeIf(func(e *pendingEvent) bool { return e.control == c })
	require.Equal(t, 2, removed)
	require.Equal(t, 1, s.len())
	require.Len(t, s.positions(), 1)

	s.clear()
	require.True(t, s.empty())
	require.Nil(t, s.first())
}
