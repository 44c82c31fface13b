package timing

import (
	"fmt"
	"math/big"
)

// Model is the timing discipline of a sequencer. It is chosen once, at construction,
// and is either a TickBased grid or Tickless exact time.
type Model interface {
	// Tickless reports whether the model has no grid.
	Tickless() bool

	// TicksPerBar is beats per bar times ticks per beat, or nil when unbounded.
	TicksPerBar() *big.Rat

	// TickDuration is the length of one tick in bars, zero when tickless.
	TickDuration() *big.Rat

	// InitialPosition is the position before the first tick, nil when tickless.
	InitialPosition() *big.Rat

	// Quantize maps p onto the grid. exact is false when p had to be moved.
	Quantize(p *big.Rat) (q *big.Rat, exact bool)

	// Advance computes the position reached by one tick from current. earliest is the
	// smallest pending position (nil if nothing is pending). ok is false when the
	// tick cannot move.
	Advance(current, earliest *big.Rat) (next *big.Rat, ok bool)
}

// TickBased quantizes every position to a fixed grid of 1/(beatsPerBar*ticksPerBeat)
// bars.
type TickBased struct {
	beatsPerBar  int64
	ticksPerBeat int64
	ticksPerBar  *big.Rat
	tickDuration *big.Rat
}

// NewTickBased creates a grid model. Both arguments must be positive.
func NewTickBased(beatsPerBar, ticksPerBeat int64) (*TickBased, error) {
	if beatsPerBar <= 0 || ticksPerBeat <= 0 {
		return nil, fmt.Errorf("beats per bar (%d) and ticks per beat (%d) must be positive", beatsPerBar, ticksPerBeat)
	}
	tpb := Int(beatsPerBar * ticksPerBeat)
	return &TickBased{
		beatsPerBar:  beatsPerBar,
		ticksPerBeat: ticksPerBeat,
		ticksPerBar:  tpb,
		tickDuration: new(big.Rat).Inv(tpb),
	}, nil
}

func (t *TickBased) BeatsPerBar() int64  { return t.beatsPerBar }
func (t *TickBased) TicksPerBeat() int64 { return t.ticksPerBeat }

func (t *TickBased) Tickless() bool            { return false }
func (t *TickBased) TicksPerBar() *big.Rat     { return Copy(t.ticksPerBar) }
func (t *TickBased) TickDuration() *big.Rat    { return Copy(t.tickDuration) }
func (t *TickBased) InitialPosition() *big.Rat { return Sub(Int(1), t.tickDuration) }

func (t *TickBased) Quantize(p *big.Rat) (*big.Rat, bool) {
	ticks := Round(Mul(p, t.ticksPerBar))
	q := new(big.Rat).SetFrac(ticks, t.ticksPerBar.Num())
	return q, q.Cmp(p) == 0
}

func (t *TickBased) Advance(current, _ *big.Rat) (*big.Rat, bool) {
	return Add(current, t.tickDuration), true
}

// Tickless keeps exact positions; a tick jumps straight to the next pending position.
type Tickless struct{}

func NewTickless() *Tickless { return &Tickless{} }

func (Tickless) Tickless() bool            { return true }
func (Tickless) TicksPerBar() *big.Rat     { return nil }
func (Tickless) TickDuration() *big.Rat    { return new(big.Rat) }
func (Tickless) InitialPosition() *big.Rat { return nil }

func (Tickless) Quantize(p *big.Rat) (*big.Rat, bool) {
	return Copy(p), true
}

func (Tickless) Advance(current, earliest *big.Rat) (*big.Rat, bool) {
	if earliest == nil {
		return current, false
	}
	if current != nil && earliest.Cmp(current) < 0 {
		return current, true
	}
	return Copy(earliest), true
}

// OutOfGridError reports a position that was not on the tick grid and was rounded.
// It is a warning: the quantized value is used unless the caller escalates it.
type OutOfGridError struct {
	Position  *big.Rat
	Quantized *big.Rat
}

func (e *OutOfGridError) Error() string {
	return fmt.Sprintf("position %s is not on the tick grid, quantized to %s", Format(e.Position), Format(e.Quantized))
}
