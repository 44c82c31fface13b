package sequencer

import (
	"fmt"
	"math"
	"math/big"

	"github.com/robmorgan/cadence/timing"
	"github.com/sirupsen/logrus"
)

// ParamOptions override the timing of a single move parameter.
type ParamOptions struct {
	Duration  *big.Rat
	Every     *big.Rat
	Step      float64
	RightOpen *bool
	Function  func(ratio float64) float64
}

// MoveOptions describe an interpolation. From is required. With To set, every parameter
// travels from its From value to its To value, timed by one of:
//
//   - Duration and Every: a sample every Every bars, reaching To after Duration bars
//   - Duration and Step: enough samples of Step value increments to reach To in Duration
//   - Step and Every: one Step per Every bars until To
//   - Duration alone: Every defaults to the tick duration (tick-based sequencers only)
//
// Till stands in for Duration, measured from the start. Without To the move is
// open-ended: it needs Step and Every and runs until Till or until stopped.
type MoveOptions struct {
	From Values
	To   Values

	Duration *big.Rat
	Every    *big.Rat
	Step     float64
	Till     *big.Rat

	// RightOpen leaves out the terminal sample of every parameter.
	RightOpen bool

	// Function warps the progress ratio in [0, 1] before linear interpolation.
	// Defaults to the identity.
	Function func(ratio float64) float64

	// Overrides apply per parameter, keyed by parameter key (see Index for arrays).
	Overrides map[string]ParamOptions
}

// MoveStep is the snapshot handed to a move callback. Slices are aligned with
// Values.Keys().
type MoveStep struct {
	Position *big.Rat

	// Values holds every parameter's current value. Finished parameters hold their
	// last value.
	Values Values

	// Next holds the value each parameter takes at its next sample, or its current
	// value when it has no more samples.
	Next Values

	// Durations is the time until each parameter's next change, nil when finished.
	Durations []*big.Rat

	// StartedAgo is how long each parameter's current value has been held. Zero means
	// it changed at this step.
	StartedAgo []*big.Rat

	// Last is set on the final step of the move.
	Last bool
}

func (m MoveStep) index(key string) int {
	for i, k := range m.Values.keys {
		if k == key {
			return i
		}
	}
	return -1
}

// StartedAgoOf returns StartedAgo for key, nil for an unknown key.
func (m MoveStep) StartedAgoOf(key string) *big.Rat {
	if i := m.index(key); i >= 0 {
		return m.StartedAgo[i]
	}
	return nil
}

// DurationOf returns Durations for key.
func (m MoveStep) DurationOf(key string) *big.Rat {
	if i := m.index(key); i >= 0 {
		return m.Durations[i]
	}
	return nil
}

// Changed reports whether the parameter took a new sample at this step.
func (m MoveStep) Changed(key string) bool {
	ago := m.StartedAgoOf(key)
	return ago != nil && ago.Sign() == 0
}

// paramTimeline is the sampling plan and state of one parameter.
type paramTimeline struct {
	key      string
	from, to float64
	delta    float64
	step     float64
	bounded  bool
	stepMode bool

	start  *big.Rat
	every  *big.Rat
	length *big.Rat
	steps  int64
	last   int64

	till      *big.Rat
	rightOpen bool

	fn       func(float64) float64
	quantize func(*big.Rat) *big.Rat

	k         int64
	value     float64
	changedAt *big.Rat
	finished  bool
}

func (p *paramTimeline) timeOf(k int64) *big.Rat {
	offset := timing.MulInt(p.every, k)
	if p.bounded {
		offset = timing.Min(offset, p.length)
	}
	return p.quantize(timing.Add(p.start, offset))
}

func (p *paramTimeline) ratioOf(k int64) float64 {
	if p.steps == 0 {
		return 1
	}
	var r *big.Rat
	if p.stepMode {
		r = timing.R(k, p.steps)
	} else {
		r = timing.Quo(timing.MulInt(p.every, k), p.length)
	}
	if r.Cmp(timing.Int(1)) > 0 {
		return 1
	}
	f, _ := r.Float64()
	return f
}

func (p *paramTimeline) valueOf(k int64) float64 {
	if !p.bounded {
		return p.from + float64(k)*p.step
	}
	if p.stepMode && p.fn == nil {
		// exact multiples of the step, clamped to the destination
		moved := math.Min(float64(k)*math.Abs(p.step), math.Abs(p.delta))
		if moved == math.Abs(p.delta) {
			return p.to
		}
		return p.from + math.Copysign(moved, p.delta)
	}
	fn := p.fn
	if fn == nil {
		fn = identity
	}
	w := fn(p.ratioOf(k))
	if w == 1 {
		return p.to
	}
	return p.from + p.delta*w
}

func (p *paramTimeline) has(k int64) bool {
	if p.bounded {
		return k <= p.last
	}
	if p.till == nil {
		return true
	}
	cmp := p.timeOf(k).Cmp(p.till)
	return cmp < 0 || (cmp == 0 && !p.rightOpen)
}

func (p *paramTimeline) due() *big.Rat {
	return p.timeOf(p.k)
}

func (p *paramTimeline) advance(at *big.Rat) {
	p.value = p.valueOf(p.k)
	p.changedAt = timing.Copy(at)
	p.k++
	p.finished = !p.has(p.k)
}

func (p *paramTimeline) end() *big.Rat {
	if !p.bounded {
		return nil
	}
	return p.quantize(timing.Add(p.start, p.length))
}

func identity(r float64) float64 { return r }

// Move interpolates one or many parameters over time and calls fn at every sampling
// point. Parameters keep independent timelines; each step happens at the earliest
// next sample among the parameters that have not finished.
func (s *Sequencer) Move(opts MoveOptions, fn func(step MoveStep, c *Control)) (*Control, error) {
	return s.move(opts, nil, fn)
}

func (s *Sequencer) move(opts MoveOptions, parent *Control, fn func(step MoveStep, c *Control)) (*Control, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if parent != nil && parent.Stopped() {
		return nil, ErrStopped
	}
	start, err := s.startPosition()
	if err != nil {
		return nil, err
	}
	params, err := s.planMove(opts, start)
	if err != nil {
		return nil, err
	}

	c := newControl(s, parent, start)
	layout := opts.From

	if s.doLog {
		s.log.WithFields(logrus.Fields{
			"start":  timing.Format(start),
			"params": len(params),
		}).Debug("move started")
	}

	allFinished := func() bool {
		for _, p := range params {
			if !p.finished {
				return false
			}
		}
		return true
	}
	if allFinished() {
		c.finish(start)
		return c, nil
	}

	var step func(expected *big.Rat) func()
	step = func(expected *big.Rat) func() {
		return func() {
			position := s.Position()
			if lag := timing.Sub(position, expected); lag.Sign() > 0 {
				for _, p := range params {
					p.start = timing.Add(p.start, lag)
					if p.till != nil {
						p.till = timing.Add(p.till, lag)
					}
				}
			}

			for _, p := range params {
				if !p.finished && p.due().Cmp(position) <= 0 {
					p.advance(position)
				}
			}

			snapshot := MoveStep{
				Position:   position,
				Durations:  make([]*big.Rat, len(params)),
				StartedAgo: make([]*big.Rat, len(params)),
				Last:       allFinished(),
			}
			current := make([]float64, len(params))
			next := make([]float64, len(params))
			var nextDue *big.Rat
			for i, p := range params {
				current[i] = p.value
				next[i] = p.value
				snapshot.StartedAgo[i] = timing.Sub(position, p.changedAt)
				if p.finished {
					continue
				}
				due := p.due()
				next[i] = p.valueOf(p.k)
				snapshot.Durations[i] = timing.Sub(due, position)
				if nextDue == nil || due.Cmp(nextDue) < 0 {
					nextDue = due
				}
			}
			snapshot.Values = layout.with(current)
			snapshot.Next = layout.with(next)

			s.invoke(func() { fn(snapshot, c) })
			if c.Stopped() {
				return
			}

			if snapshot.Last {
				end := position
				for _, p := range params {
					if e := p.end(); e != nil && e.Cmp(end) > 0 {
						end = e
					}
				}
				c.finish(end)
				return
			}
			if err := s.schedule(nextDue, c, step(nextDue)); err != nil {
				s.handleError(err)
			}
		}
	}

	if err := s.schedule(start, c, step(start)); err != nil {
		return nil, err
	}
	return c, nil
}

// planMove validates opts and builds one timeline per parameter.
func (s *Sequencer) planMove(opts MoveOptions, start *big.Rat) ([]*paramTimeline, error) {
	if opts.From.IsZero() || opts.From.Len() == 0 {
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMove)
	}
	bounded := !opts.To.IsZero()
	if bounded && !opts.From.sameLayout(opts.To) {
		return nil, fmt.Errorf("%w: from and to have different parameters", ErrInvalidMove)
	}

	quantize := func(p *big.Rat) *big.Rat {
		q, _ := s.model.Quantize(p)
		return q
	}

	params := make([]*paramTimeline, 0, opts.From.Len())
	for i, key := range opts.From.keys {
		o := ParamOptions{
			Duration:  opts.Duration,
			Every:     opts.Every,
			Step:      opts.Step,
			RightOpen: &opts.RightOpen,
			Function:  opts.Function,
		}
		if override, ok := opts.Overrides[key]; ok {
			if override.Duration != nil {
				o.Duration = override.Duration
			}
			if override.Every != nil {
				o.Every = override.Every
			}
			if override.Step != 0 {
				o.Step = override.Step
			}
			if override.RightOpen != nil {
				o.RightOpen = override.RightOpen
			}
			if override.Function != nil {
				o.Function = override.Function
			}
		}

		p := &paramTimeline{
			key:       key,
			from:      opts.From.values[i],
			value:     opts.From.values[i],
			step:      o.Step,
			bounded:   bounded,
			start:     timing.Copy(start),
			changedAt: timing.Copy(start),
			rightOpen: *o.RightOpen,
			fn:        o.Function,
			quantize:  quantize,
		}
		if opts.Till != nil {
			p.till = timing.Copy(opts.Till)
		}

		var err error
		if bounded {
			p.to = opts.To.values[i]
			p.delta = p.to - p.from
			err = s.planBounded(p, o, start)
		} else {
			err = s.planOpen(p, o)
		}
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		p.finished = !p.has(0)
		params = append(params, p)
	}
	return params, nil
}

func (s *Sequencer) planBounded(p *paramTimeline, o ParamOptions, start *big.Rat) error {
	length := o.Duration
	if length == nil && p.till != nil {
		length = timing.Sub(p.till, start)
	}
	every := o.Every

	if o.Step != 0 {
		p.stepMode = true
		distance, err := timing.FromFloat(math.Abs(p.delta))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
		stride, err := timing.FromFloat(math.Abs(o.Step))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMove, err)
		}
		p.steps = timing.Ceil(timing.Quo(distance, stride)).Int64()
		switch {
		case p.steps == 0:
			every, length = timing.Int(1), new(big.Rat)
		case length != nil:
			every = timing.Quo(length, timing.Int(p.steps))
		case every != nil:
			length = timing.MulInt(every, p.steps)
		case !s.model.Tickless():
			every = s.model.TickDuration()
			length = timing.MulInt(every, p.steps)
		default:
			return fmt.Errorf("%w: step needs duration or every on a tickless sequencer", ErrInvalidMove)
		}
	} else {
		if length == nil {
			return fmt.Errorf("%w: duration, till or step is required", ErrInvalidMove)
		}
		if every == nil {
			if s.model.Tickless() {
				return fmt.Errorf("%w: every is required on a tickless sequencer", ErrInvalidMove)
			}
			every = s.model.TickDuration()
		}
		if every.Sign() <= 0 {
			return fmt.Errorf("%w: every must be positive", ErrInvalidMove)
		}
		if length.Sign() < 0 {
			return fmt.Errorf("%w: duration must not be negative", ErrInvalidMove)
		}
		p.steps = timing.Ceil(timing.Quo(length, every)).Int64()
		if p.delta == 0 {
			p.steps = 0
		}
	}
	if every.Sign() <= 0 {
		return fmt.Errorf("%w: every must be positive", ErrInvalidMove)
	}

	p.every = timing.Copy(every)
	p.length = timing.Copy(length)
	p.last = p.steps
	if p.rightOpen && p.steps > 0 {
		p.last = p.steps - 1
	}
	return nil
}

func (s *Sequencer) planOpen(p *paramTimeline, o ParamOptions) error {
	if o.Step == 0 {
		return fmt.Errorf("%w: a move without to needs step", ErrInvalidMove)
	}
	if o.Every == nil || o.Every.Sign() <= 0 {
		return fmt.Errorf("%w: a move without to needs a positive every", ErrInvalidMove)
	}
	p.every = timing.Copy(o.Every)
	return nil
}
