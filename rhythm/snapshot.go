package rhythm

import (
	"fmt"
	"time"
)

// Snapshot is a metronome's timeline read at one instant.
type Snapshot struct {
	// Instant is the point in time with respect to which the snapshot is computed.
	Instant time.Time

	Tempo       float64
	BeatsPerBar int

	// Beat is the 1-based beat number since the metronome started.
	Beat int64

	// BeatPhase is how far into the beat the instant lies, in [0, 1).
	BeatPhase float64
}

// Bar returns the 1-based bar number.
func (s Snapshot) Bar() int64 {
	return (s.Beat-1)/int64(s.BeatsPerBar) + 1
}

// BeatWithinBar returns the beat number relative to the start of the bar, from 1.
func (s Snapshot) BeatWithinBar() int {
	return int((s.Beat-1)%int64(s.BeatsPerBar)) + 1
}

// IsDownBeat checks whether the beat is the first in its bar.
func (s Snapshot) IsDownBeat() bool {
	return s.BeatWithinBar() == 1
}

// Marker returns the time represented by the snapshot as "bar.beat".
func (s Snapshot) Marker() string {
	return fmt.Sprintf("%d.%d", s.Bar(), s.BeatWithinBar())
}
