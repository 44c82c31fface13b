package sequencer

import (
	"math/big"

	"github.com/robmorgan/cadence/timing"
	"github.com/sirupsen/logrus"
)

// EveryOptions bound a repetition. All fields are optional.
type EveryOptions struct {
	// Till stops the repetition before any iteration whose period would reach Till.
	Till *big.Rat

	// Duration stops the repetition once the iterations executed cover Duration bars.
	Duration *big.Rat

	// Condition is checked before each iteration; false ends the repetition.
	Condition func() bool
}

// Every runs fn now and then every interval bars until stopped or until one of the
// bounds in opts is reached. When the repetition ends on its own, the control finishes
// one interval after the last check, which is where After offsets count from.
func (s *Sequencer) Every(interval *big.Rat, opts EveryOptions, fn func(c *Control)) (*Control, error) {
	return s.every(interval, opts, nil, fn)
}

func (s *Sequencer) every(interval *big.Rat, opts EveryOptions, parent *Control, fn func(c *Control)) (*Control, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if interval == nil || interval.Sign() <= 0 {
		return nil, ErrInvalidInterval
	}
	if parent != nil && parent.Stopped() {
		return nil, ErrStopped
	}
	start, err := s.startPosition()
	if err != nil {
		return nil, err
	}
	interval, err = s.everyInterval(interval)
	if err != nil {
		return nil, err
	}

	c := newControl(s, parent, start)
	executed := int64(0)

	if s.doLog {
		s.log.WithFields(logrus.Fields{
			"start":    timing.Format(start),
			"interval": timing.Format(interval),
		}).Debug("every started")
	}

	var iteration func()
	iteration = func() {
		position := s.Position()
		next := timing.Add(position, interval)

		tillExceeded := opts.Till != nil && next.Cmp(opts.Till) >= 0
		conditionFailed := false
		if opts.Condition != nil {
			ok := false
			s.invoke(func() { ok = opts.Condition() })
			conditionFailed = !ok
		}

		if !tillExceeded && !conditionFailed {
			s.invoke(func() { fn(c) })
			executed++
		}
		if c.Stopped() {
			return
		}

		durationExceeded := opts.Duration != nil && timing.MulInt(interval, executed).Cmp(opts.Duration) >= 0
		if tillExceeded || conditionFailed || durationExceeded {
			c.finish(next)
			return
		}

		if err := s.schedule(next, c, iteration); err != nil {
			s.handleError(err)
		}
	}

	if err := s.schedule(start, c, iteration); err != nil {
		return nil, err
	}
	return c, nil
}

// everyInterval puts interval on the tick grid, so that every iteration lands exactly
// one interval after the previous one. An interval shorter than half a tick would round
// to zero and is raised to one tick.
func (s *Sequencer) everyInterval(interval *big.Rat) (*big.Rat, error) {
	q, err := s.quantize(interval, true)
	if err != nil {
		return nil, err
	}
	if q.Sign() == 0 {
		q = s.model.TickDuration()
		s.log.WithFields(logrus.Fields{
			"interval": timing.Format(interval),
			"raised":   timing.Format(q),
		}).Warn("every interval is shorter than a tick")
	}
	return q, nil
}
