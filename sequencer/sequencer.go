// Package sequencer implements a discrete-event scheduler over exact rational musical
// time. Callbacks are registered at bar positions and executed, in position order, as
// the driver ticks the sequencer forward or jumps it to a later position.
//
// A Sequencer is not safe for concurrent use. One driver (a test, a transport, a MIDI
// clock) must be the sole caller of Tick, SetPosition and Run.
package sequencer

import (
	"math/big"

	commonerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/robmorgan/cadence/config"
	"github.com/robmorgan/cadence/logger"
	"github.com/robmorgan/cadence/timing"
	"github.com/sirupsen/logrus"
)

// Sequencer owns the timeslot store and the timing model.
type Sequencer struct {
	model    timing.Model
	position *big.Rat
	store    *timeslotStore
	draining int

	log        *logrus.Entry
	doLog      bool
	doErrorLog bool
	strictGrid bool

	onError       []func(err error)
	onDebugAt     []func(position *big.Rat)
	beforeTick    []func(position *big.Rat)
	onFastForward []func(starting bool)

	bus      *EventBus
	controls []*Control
}

// Option customises a Sequencer at construction.
type Option func(*Sequencer)

// WithLogger replaces the project logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(s *Sequencer) { s.log = entry }
}

// WithDoLog enables debug records for every tick and executed event.
func WithDoLog(enabled bool) Option {
	return func(s *Sequencer) { s.doLog = enabled }
}

// WithDoErrorLog controls logging of recovered callback failures. Enabled by default.
func WithDoErrorLog(enabled bool) Option {
	return func(s *Sequencer) { s.doErrorLog = enabled }
}

// WithStrictGrid makes scheduling return a *timing.OutOfGridError instead of only
// warning when a position is not on the tick grid.
func WithStrictGrid(enabled bool) Option {
	return func(s *Sequencer) { s.strictGrid = enabled }
}

// New creates a tick-based sequencer with beatsPerBar * ticksPerBeat ticks per bar.
func New(beatsPerBar, ticksPerBeat int64, opts ...Option) (*Sequencer, error) {
	model, err := timing.NewTickBased(beatsPerBar, ticksPerBeat)
	if err != nil {
		return nil, err
	}
	return newSequencer(model, opts...), nil
}

// NewTickless creates a sequencer on exact time. Its position is unset until the first
// tick.
func NewTickless(opts ...Option) *Sequencer {
	return newSequencer(timing.NewTickless(), opts...)
}

// NewFromConfig builds a sequencer from a CadenceConfig. Zero bar and tick settings
// select tickless mode.
func NewFromConfig(cfg config.CadenceConfig, opts ...Option) (*Sequencer, error) {
	base := []Option{
		WithDoLog(cfg.DoLog),
		WithDoErrorLog(cfg.DoErrorLog),
		WithStrictGrid(cfg.StrictGrid),
	}
	if cfg.Logger != nil {
		base = append(base, WithLogger(logrus.NewEntry(cfg.Logger)))
	}
	opts = append(base, opts...)

	if cfg.Tickless() {
		return NewTickless(opts...), nil
	}
	return New(int64(cfg.BeatsPerBar), int64(cfg.TicksPerBeat), opts...)
}

func newSequencer(model timing.Model, opts ...Option) *Sequencer {
	s := &Sequencer{
		model:      model,
		store:      newTimeslotStore(),
		doErrorLog: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.GetProjectLogger()
	}
	s.bus = newEventBus(s.invoke)
	s.position = model.InitialPosition()
	return s
}

// Position returns the current position, or nil for a tickless sequencer that has not
// moved yet.
func (s *Sequencer) Position() *big.Rat {
	return timing.Copy(s.position)
}

// Model returns the timing model.
func (s *Sequencer) Model() timing.Model { return s.model }

// Tickless reports whether the sequencer runs without a tick grid.
func (s *Sequencer) Tickless() bool { return s.model.Tickless() }

// TicksPerBar returns nil for a tickless sequencer.
func (s *Sequencer) TicksPerBar() *big.Rat { return s.model.TicksPerBar() }

func (s *Sequencer) TickDuration() *big.Rat { return s.model.TickDuration() }

// Size returns the number of pending events.
func (s *Sequencer) Size() int { return s.store.len() }

// Empty reports whether nothing is pending.
func (s *Sequencer) Empty() bool { return s.store.empty() }

// PendingPositions lists the positions that have pending events, ascending.
func (s *Sequencer) PendingPositions() []*big.Rat { return s.store.positions() }

// QuantizePosition rounds p to the tick grid. With warn set, an off-grid value is
// logged at warning level.
func (s *Sequencer) QuantizePosition(p *big.Rat, warn bool) *big.Rat {
	q, _ := s.quantize(p, warn)
	return q
}

func (s *Sequencer) quantize(p *big.Rat, warn bool) (*big.Rat, error) {
	q, exact := s.model.Quantize(p)
	if exact {
		return q, nil
	}
	err := &timing.OutOfGridError{Position: timing.Copy(p), Quantized: q}
	if warn {
		s.log.WithFields(logrus.Fields{
			"position":  timing.Format(p),
			"quantized": timing.Format(q),
		}).Warn("rounding position to tick precision")
	}
	if s.strictGrid {
		return q, err
	}
	return q, nil
}

// Tick advances the sequencer by one tick and executes everything that became due. On
// a tick-based sequencer the position moves by one tick duration; on a tickless one it
// jumps to the earliest pending position, and the call is a no-op when nothing is
// pending.
func (s *Sequencer) Tick() {
	next, ok := s.model.Advance(s.position, s.store.first())
	if !ok {
		return
	}
	s.position = next

	for _, fn := range s.beforeTick {
		fn := fn
		s.invoke(func() { fn(timing.Copy(next)) })
	}
	if s.doLog {
		s.log.WithField("position", timing.Format(next)).Debug("tick")
	}

	s.drain(next)
}

// Run ticks until no events are pending.
func (s *Sequencer) Run() {
	for !s.store.empty() {
		s.Tick()
	}
}

// SetPosition fast-forwards to target, executing every intervening timeslot in order
// without real-time delay. on_fast_forward hooks are told when the jump starts and
// ends. A target earlier than the current position is rejected.
func (s *Sequencer) SetPosition(target *big.Rat) error {
	q, err := s.quantize(target, true)
	if err != nil {
		return err
	}
	if s.position != nil {
		switch q.Cmp(s.position) {
		case -1:
			return &PositionError{Position: q, Current: s.Position()}
		case 0:
			return nil
		}
	}

	if s.doLog {
		s.log.WithFields(logrus.Fields{
			"from": timing.Format(s.position),
			"to":   timing.Format(q),
		}).Debug("fast forward")
	}

	s.fireFastForward(true)
	s.drain(q)
	s.position = q
	s.fireFastForward(false)
	return nil
}

func (s *Sequencer) fireFastForward(starting bool) {
	for _, fn := range s.onFastForward {
		fn := fn
		s.invoke(func() { fn(starting) })
	}
}

// drain executes every slot with a position <= limit, earliest first. Slots inserted
// while draining are honoured as long as they fall within limit.
func (s *Sequencer) drain(limit *big.Rat) {
	s.draining++
	defer func() { s.draining-- }()

	for slot := s.store.popUpTo(limit); slot != nil; slot = s.store.popUpTo(limit) {
		if s.position == nil || slot.at.Cmp(s.position) > 0 {
			s.position = slot.at
		}
		for _, e := range slot.events {
			s.execute(e)
		}
	}
}

// execute runs one pending event, unless its control stopped or is paused.
func (s *Sequencer) execute(e *pendingEvent) {
	if c := e.control; c != nil {
		if c.Stopped() {
			return
		}
		if owner := c.pausedOwner(); owner != nil {
			owner.park(e, s.position)
			return
		}
	}

	for _, fn := range s.onDebugAt {
		fn := fn
		s.invoke(func() { fn(timing.Copy(s.position)) })
	}
	if s.doLog {
		s.log.WithField("position", timing.Format(s.position)).Debug("executing event")
	}

	s.invoke(e.fn)
}

// invoke calls fn, recovering any panic and routing it to the error handlers.
func (s *Sequencer) invoke(fn func()) {
	defer commonerrors.Recover(func(cause error) {
		s.handleError(cause)
	})
	fn()
}

func (s *Sequencer) handleError(cause error) {
	err := &CallbackError{Position: s.Position(), Err: cause}

	if s.doErrorLog {
		s.log.WithField("position", timing.Format(err.Position)).Errorf("callback failed: %v", cause)
		s.log.Debug(commonerrors.PrintErrorWithStackTrace(cause))
	}

	for _, fn := range s.onError {
		s.callErrorHandler(fn, err)
	}
}

// callErrorHandler isolates failures of the error handlers themselves, which are only
// logged to avoid feeding back into handleError.
func (s *Sequencer) callErrorHandler(fn func(error), err error) {
	defer commonerrors.Recover(func(cause error) {
		s.log.WithField("position", timing.Format(s.position)).Errorf("error handler failed: %v", cause)
	})
	fn(err)
}

// OnError registers a handler for failures raised by scheduled callbacks. Failures are
// always suppressed after the handlers run.
func (s *Sequencer) OnError(fn func(err error)) {
	s.onError = append(s.onError, fn)
}

// OnDebugAt registers a hook called once per executed event.
func (s *Sequencer) OnDebugAt(fn func(position *big.Rat)) {
	s.onDebugAt = append(s.onDebugAt, fn)
}

// BeforeTick registers a hook called on every tick before due events execute.
func (s *Sequencer) BeforeTick(fn func(position *big.Rat)) {
	s.beforeTick = append(s.beforeTick, fn)
}

// OnFastForward registers a hook called with true when a position jump starts and
// false when it ends.
func (s *Sequencer) OnFastForward(fn func(starting bool)) {
	s.onFastForward = append(s.onFastForward, fn)
}

// On subscribes to a sequencer-level event.
func (s *Sequencer) On(event string, fn Handler) {
	s.bus.On(event, fn)
}

// Launch publishes a sequencer-level event. Control-level subscribers are not called.
func (s *Sequencer) Launch(event string, args ...any) bool {
	return s.bus.Launch(event, args...)
}

// Reset discards every pending event and control and returns to the initial
// position. Hooks and subscribers are kept.
func (s *Sequencer) Reset() {
	for _, c := range s.controls {
		c.abandon()
	}
	s.controls = nil
	s.store.clear()
	s.position = s.model.InitialPosition()
}

// At schedules fn at an absolute position. Scheduling at the current position outside
// of a drain runs fn immediately.
func (s *Sequencer) At(position *big.Rat, fn func()) error {
	return s.schedule(position, nil, fn)
}

// Wait schedules fn delay bars after the current position.
func (s *Sequencer) Wait(delay *big.Rat, fn func()) error {
	return s.wait(delay, nil, fn)
}

// Now schedules fn at the current position.
func (s *Sequencer) Now(fn func()) error {
	return s.wait(new(big.Rat), nil, fn)
}

func (s *Sequencer) wait(delay *big.Rat, parent *Control, fn func()) error {
	if s.position == nil {
		return ErrPositionUnset
	}
	return s.schedule(timing.Add(s.position, delay), parent, fn)
}

func (s *Sequencer) schedule(position *big.Rat, owner *Control, fn func()) error {
	if fn == nil {
		return ErrNilCallback
	}
	if owner != nil && owner.Stopped() {
		return ErrStopped
	}
	q, err := s.quantize(position, true)
	if err != nil {
		return err
	}

	e := &pendingEvent{at: q, control: owner, fn: fn}
	if s.position != nil {
		switch q.Cmp(s.position) {
		case -1:
			return &PositionError{Position: q, Current: s.Position()}
		case 0:
			if s.draining == 0 {
				s.execute(e)
				return nil
			}
		}
	}
	s.store.add(e)
	return nil
}

// startPosition is where relative operations (Every, Move, Play) begin.
func (s *Sequencer) startPosition() (*big.Rat, error) {
	if s.position == nil {
		return nil, ErrPositionUnset
	}
	return timing.Copy(s.position), nil
}

func (s *Sequencer) purge(c *Control) {
	s.store.removeIf(func(e *pendingEvent) bool {
		return e.control != nil && e.control.within(c)
	})
}

func (s *Sequencer) register(c *Control) {
	live := s.controls[:0]
	for _, existing := range s.controls {
		if !existing.Stopped() {
			live = append(live, existing)
		}
	}
	s.controls = append(live, c)
}
