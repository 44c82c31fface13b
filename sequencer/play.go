package sequencer

import (
	"fmt"
	"math/big"

	"github.com/robmorgan/cadence/series"
	"github.com/robmorgan/cadence/timing"
	"github.com/sirupsen/logrus"
)

// PlayMode selects how Play reads the timing of each element.
type PlayMode int

const (
	// PlayWait schedules each element the element's duration after the previous one.
	PlayWait PlayMode = iota

	// PlayAt schedules each element at its own absolute position.
	PlayAt
)

func (m PlayMode) String() string {
	switch m {
	case PlayWait:
		return "wait"
	case PlayAt:
		return "at"
	default:
		return fmt.Sprintf("PlayMode(%d)", int(m))
	}
}

// Durationer is an element that knows how long it lasts.
type Durationer interface {
	Duration() *big.Rat
}

// Positioner is an element that knows where it starts.
type Positioner interface {
	At() *big.Rat
}

// Timed is an element for PlayTimed.
type Timed struct {
	Time  *big.Rat
	Value any
}

// TimedValue is what a PlayTimed callback receives.
type TimedValue struct {
	Value any

	// Time is the nominal position of the element.
	Time *big.Rat

	// StartedAgo is how far past its nominal time the element is executed. It is zero
	// unless the element's time had already gone by when it was read.
	StartedAgo *big.Rat
}

// Play pulls elements from the series one at a time and calls fn with each of them.
// In PlayWait mode every element must carry a duration ("duration" key of a
// map[string]any, or Durationer); in PlayAt mode an absolute position ("at" key, or
// Positioner). The control finishes when the series is exhausted.
func (s *Sequencer) Play(sr series.Series, mode PlayMode, fn func(value any, c *Control)) (*Control, error) {
	return s.play(sr, mode, nil, fn)
}

func (s *Sequencer) play(sr series.Series, mode PlayMode, parent *Control, fn func(value any, c *Control)) (*Control, error) {
	if sr == nil {
		return nil, ErrNilSeries
	}
	if fn == nil {
		return nil, ErrNilCallback
	}
	if mode != PlayWait && mode != PlayAt {
		return nil, fmt.Errorf("unknown play mode %v", mode)
	}
	if parent != nil && parent.Stopped() {
		return nil, ErrStopped
	}
	start, err := s.startPosition()
	if err != nil {
		return nil, err
	}

	c := newControl(s, parent, start)
	cursor := sr.Instance()
	shift := new(big.Rat)

	if s.doLog {
		s.log.WithFields(logrus.Fields{
			"start": timing.Format(start),
			"mode":  mode.String(),
		}).Debug("play started")
	}

	var pull func(at *big.Rat)
	var perform func(value any, expected *big.Rat) func()

	// pull reads the next element and schedules it. at is where a PlayWait element goes.
	pull = func(at *big.Rat) {
		for {
			value, ok := cursor.NextValue()
			if !ok {
				end := s.Position()
				if at != nil && at.Cmp(end) > 0 {
					end = at
				}
				c.finish(end)
				return
			}

			target := at
			if mode == PlayAt {
				position, err := positionOf(value)
				if err != nil {
					s.handleError(err)
					c.finish(s.Position())
					return
				}
				target = timing.Add(position, shift)
			}

			target, err := s.quantize(target, true)
			if err == nil {
				err = s.schedule(target, c, perform(value, target))
			}
			if err == nil {
				return
			}
			// an element in the past is reported and skipped
			s.handleError(err)
			if mode == PlayWait {
				c.finish(s.Position())
				return
			}
		}
	}

	perform = func(value any, expected *big.Rat) func() {
		return func() {
			position := s.Position()
			if lag := timing.Sub(position, expected); lag.Sign() > 0 {
				shift = timing.Add(shift, lag)
			}

			s.invoke(func() { fn(value, c) })
			if c.Stopped() {
				return
			}

			var next *big.Rat
			if mode == PlayWait {
				d, err := durationOf(value)
				if err != nil {
					s.handleError(err)
					c.finish(position)
					return
				}
				next = timing.Add(position, d)
			}
			pull(next)
		}
	}

	pull(start)
	return c, nil
}

// PlayTimed plays a series of Timed elements (or maps with "time" and "value" keys)
// at their absolute times. An element whose time has already passed is executed at
// the current position and reports the difference as StartedAgo.
func (s *Sequencer) PlayTimed(sr series.Series, fn func(value TimedValue, c *Control)) (*Control, error) {
	return s.playTimed(sr, nil, fn)
}

func (s *Sequencer) playTimed(sr series.Series, parent *Control, fn func(value TimedValue, c *Control)) (*Control, error) {
	if sr == nil {
		return nil, ErrNilSeries
	}
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

	c := newControl(s, parent, start)
	cursor := sr.Instance()
	shift := new(big.Rat)

	var pull func()
	var perform func(t Timed, nominal, scheduled *big.Rat) func()

	pull = func() {
		value, ok := cursor.NextValue()
		if !ok {
			c.finish(s.Position())
			return
		}
		t, err := timedOf(value)
		if err != nil {
			s.handleError(err)
			c.finish(s.Position())
			return
		}

		nominal := timing.Add(t.Time, shift)
		scheduled, _ := s.model.Quantize(timing.Max(nominal, s.Position()))
		if err := s.schedule(scheduled, c, perform(t, nominal, scheduled)); err != nil {
			s.handleError(err)
			c.finish(s.Position())
		}
	}

	perform = func(t Timed, nominal, scheduled *big.Rat) func() {
		return func() {
			position := s.Position()
			if lag := timing.Sub(position, scheduled); lag.Sign() > 0 {
				shift = timing.Add(shift, lag)
				nominal = timing.Add(nominal, lag)
			}

			tv := TimedValue{
				Value:      t.Value,
				Time:       timing.Copy(t.Time),
				StartedAgo: timing.Max(new(big.Rat), timing.Sub(position, nominal)),
			}
			s.invoke(func() { fn(tv, c) })
			if c.Stopped() {
				return
			}
			pull()
		}
	}

	pull()
	return c, nil
}

func durationOf(value any) (*big.Rat, error) {
	switch v := value.(type) {
	case Durationer:
		if d := v.Duration(); d != nil {
			return d, nil
		}
	case map[string]any:
		if raw, ok := v["duration"]; ok {
			return toRat(raw)
		}
	}
	return nil, fmt.Errorf("%w: duration missing from %v", ErrMissingTiming, value)
}

func positionOf(value any) (*big.Rat, error) {
	switch v := value.(type) {
	case Positioner:
		if p := v.At(); p != nil {
			return p, nil
		}
	case map[string]any:
		if raw, ok := v["at"]; ok {
			return toRat(raw)
		}
	}
	return nil, fmt.Errorf("%w: at missing from %v", ErrMissingTiming, value)
}

func timedOf(value any) (Timed, error) {
	switch v := value.(type) {
	case Timed:
		if v.Time != nil {
			return v, nil
		}
	case *Timed:
		if v != nil && v.Time != nil {
			return *v, nil
		}
	case map[string]any:
		if raw, ok := v["time"]; ok {
			t, err := toRat(raw)
			if err != nil {
				return Timed{}, err
			}
			return Timed{Time: t, Value: v["value"]}, nil
		}
	}
	return Timed{}, fmt.Errorf("%w: time missing from %v", ErrMissingTiming, value)
}

// toRat accepts the numeric forms that appear in element maps.
func toRat(raw any) (*big.Rat, error) {
	switch v := raw.(type) {
	case *big.Rat:
		if v == nil {
			break
		}
		return timing.Copy(v), nil
	case big.Rat:
		return new(big.Rat).Set(&v), nil
	case int:
		return timing.Int(int64(v)), nil
	case int64:
		return timing.Int(v), nil
	case float64:
		r, err := timing.FromFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingTiming, err)
		}
		return r, nil
	case string:
		return timing.Parse(v)
	}
	return nil, fmt.Errorf("%w: cannot use %v (%T) as a position", ErrMissingTiming, raw, raw)
}
