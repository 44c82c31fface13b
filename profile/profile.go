package profile

const (
	MeterCommonTime = "meter:common-time"
	MeterWaltz      = "meter:waltz"
	MeterCutTime    = "meter:cut-time"
	MeterCompound   = "meter:compound"
	MeterMIDIClock  = "meter:midi-clock"
	MeterTickless   = "meter:tickless"
)

// Meter holds the grid a sequencer is built on. Zero BeatsPerBar and TicksPerBeat mean
// exact, gridless time.
type Meter struct {
	Name         string
	BeatsPerBar  int
	TicksPerBeat int
}

// Tickless reports whether the meter has no tick grid.
func (m Meter) Tickless() bool {
	return m.BeatsPerBar == 0 && m.TicksPerBeat == 0
}
