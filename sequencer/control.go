package sequencer

import (
	"math/big"

	"github.com/robmorgan/cadence/series"
	"github.com/robmorgan/cadence/timing"
)

// State of a Control.
type State int

const (
	Running State = iota
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

type afterEvent struct {
	offset *big.Rat
	fn     func()
}

type parkedEvent struct {
	offset *big.Rat
	event  *pendingEvent
}

// Control is the handle returned by Every, Move, Play and PlayTimed. It can be paused,
// continued and stopped, carries its own event bus, and schedules nested work that
// lives and dies with it.
type Control struct {
	seq      *Sequencer
	parent   *Control
	children []*Control

	state     State
	start     *big.Rat
	pausedAt  *big.Rat
	stoppedAt *big.Rat
	parked    []parkedEvent

	onStop []func()
	after  []afterEvent
	bus    *EventBus
}

func newControl(s *Sequencer, parent *Control, start *big.Rat) *Control {
	c := &Control{
		seq:    s,
		parent: parent,
		start:  start,
		bus:    newEventBus(s.invoke),
	}
	if parent != nil {
		parent.adopt(c)
	} else {
		s.register(c)
	}
	return c
}

func (c *Control) adopt(child *Control) {
	live := c.children[:0]
	for _, existing := range c.children {
		if !existing.Stopped() {
			live = append(live, existing)
		}
	}
	c.children = append(live, child)
}

// State returns the current state.
func (c *Control) State() State { return c.state }

func (c *Control) Stopped() bool { return c.state == Stopped }

// Paused reports whether this control, or one it is nested in, is paused.
func (c *Control) Paused() bool { return c.pausedOwner() != nil }

// Parent returns the control this one is nested in, or nil.
func (c *Control) Parent() *Control { return c.parent }

// Position is the sequencer's current position.
func (c *Control) Position() *big.Rat { return c.seq.Position() }

// StartPosition is where the control began.
func (c *Control) StartPosition() *big.Rat { return timing.Copy(c.start) }

// StoppedAt is the position at which the control stopped or finished, nil while it is
// still live.
func (c *Control) StoppedAt() *big.Rat { return timing.Copy(c.stoppedAt) }

// Sequencer returns the owning sequencer.
func (c *Control) Sequencer() *Sequencer { return c.seq }

func (c *Control) pausedOwner() *Control {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.state == Paused {
			return cur
		}
	}
	return nil
}

// within reports whether c is ancestor itself or nested inside it.
func (c *Control) within(ancestor *Control) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func (c *Control) park(e *pendingEvent, at *big.Rat) {
	c.parked = append(c.parked, parkedEvent{offset: timing.Sub(at, c.pausedAt), event: e})
}

// Pause suspends the control. Events that come due while it is paused are held and
// replayed, keeping their distance from the pause point, when it continues.
func (c *Control) Pause() {
	if c.state != Running {
		return
	}
	c.state = Paused
	c.pausedAt = c.seq.Position()
	if c.pausedAt == nil {
		c.pausedAt = timing.Copy(c.start)
	}
}

// Continue resumes a paused control.
func (c *Control) Continue() {
	if c.state != Paused {
		return
	}
	c.state = Running
	parked := c.parked
	c.parked = nil

	now := c.seq.Position()
	for _, p := range parked {
		e := p.event
		if e.control.Stopped() {
			continue
		}
		err := c.seq.schedule(timing.Add(now, p.offset), e.control, e.fn)
		if err != nil {
			c.seq.handleError(err)
		}
	}
}

// Stop terminates the control at the current position. It is safe to call from inside
// the control's own callback and more than once.
func (c *Control) Stop() {
	at := c.seq.Position()
	if at == nil {
		at = timing.Copy(c.start)
	}
	c.finish(at)
}

// finish is the terminal transition: descendants stop, pending work is dropped, then
// on_stop hooks run and after events are scheduled relative to at.
func (c *Control) finish(at *big.Rat) {
	if c.state == Stopped {
		return
	}
	c.state = Stopped
	c.stoppedAt = timing.Copy(at)
	c.parked = nil

	for _, child := range c.children {
		child.finish(at)
	}
	c.children = nil
	c.seq.purge(c)

	for _, fn := range c.onStop {
		c.seq.invoke(fn)
	}
	for _, a := range c.after {
		c.scheduleAfter(a)
	}
}

// abandon stops the control without running its hooks.
func (c *Control) abandon() {
	c.state = Stopped
	c.parked = nil
	for _, child := range c.children {
		child.abandon()
	}
	c.children = nil
}

func (c *Control) scheduleAfter(a afterEvent) {
	if c.parent != nil && c.parent.Stopped() {
		return
	}
	at := timing.Add(c.stoppedAt, a.offset)
	if now := c.seq.position; now != nil && at.Cmp(now) < 0 {
		at = timing.Copy(now)
	}
	if err := c.seq.schedule(at, c.parent, a.fn); err != nil {
		c.seq.handleError(err)
	}
}

// OnStop registers fn to run once when the control stops or finishes. Registered on an
// already stopped control, fn runs immediately.
func (c *Control) OnStop(fn func()) {
	if c.state == Stopped {
		c.seq.invoke(fn)
		return
	}
	c.onStop = append(c.onStop, fn)
}

// After schedules fn offset bars after the position where the control stops or
// finishes.
func (c *Control) After(offset *big.Rat, fn func()) {
	a := afterEvent{offset: timing.Copy(offset), fn: fn}
	if c.state == Stopped {
		c.scheduleAfter(a)
		return
	}
	c.after = append(c.after, a)
}

// On subscribes to an event on this control's private bus.
func (c *Control) On(event string, fn Handler) {
	c.bus.On(event, fn)
}

// Launch publishes on this control's private bus only. Sequencer-level subscribers
// are not called.
func (c *Control) Launch(event string, args ...any) bool {
	return c.bus.Launch(event, args...)
}

// At schedules fn at an absolute position, owned by this control.
func (c *Control) At(position *big.Rat, fn func()) error {
	return c.seq.schedule(position, c, fn)
}

// Wait schedules fn delay bars from now, owned by this control.
func (c *Control) Wait(delay *big.Rat, fn func()) error {
	return c.seq.wait(delay, c, fn)
}

// Now schedules fn at the current position, owned by this control.
func (c *Control) Now(fn func()) error {
	return c.seq.wait(new(big.Rat), c, fn)
}

// Every starts a nested repetition.
func (c *Control) Every(interval *big.Rat, opts EveryOptions, fn func(c *Control)) (*Control, error) {
	return c.seq.every(interval, opts, c, fn)
}

// Move starts a nested interpolation.
func (c *Control) Move(opts MoveOptions, fn func(step MoveStep, c *Control)) (*Control, error) {
	return c.seq.move(opts, c, fn)
}

// Play starts a nested series playback.
func (c *Control) Play(s series.Series, mode PlayMode, fn func(value any, c *Control)) (*Control, error) {
	return c.seq.play(s, mode, c, fn)
}

// PlayTimed starts a nested timed series playback.
func (c *Control) PlayTimed(s series.Series, fn func(value TimedValue, c *Control)) (*Control, error) {
	return c.seq.playTimed(s, c, fn)
}
