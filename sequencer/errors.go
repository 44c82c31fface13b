package sequencer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/robmorgan/cadence/timing"
)

var (
	// ErrBackwardPosition is returned when a position earlier than the current one is
	// assigned or scheduled.
	ErrBackwardPosition = errors.New("position is earlier than the current position")

	// ErrPositionUnset is returned by relative scheduling (Wait, Now, Every, Move, Play)
	// on a tickless sequencer that has not executed anything yet.
	ErrPositionUnset = errors.New("the sequencer position is not set yet")

	ErrInvalidInterval = errors.New("interval must be positive")
	ErrInvalidMove     = errors.New("invalid move parameters")
	ErrNilSeries       = errors.New("series is nil")
	ErrNilCallback     = errors.New("callback is nil")
	ErrMissingTiming   = errors.New("element does not carry the timing key required by the play mode")
	ErrStopped         = errors.New("control is stopped")
)

// PositionError describes a position rejected because it lies in the past.
type PositionError struct {
	Position *big.Rat
	Current  *big.Rat
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%v: requested %s, current %s", ErrBackwardPosition, timing.Format(e.Position), timing.Format(e.Current))
}

func (e *PositionError) Unwrap() error {
	return ErrBackwardPosition
}

// CallbackError wraps a failure recovered from a scheduled callback. Its message is the
// message of the original failure.
type CallbackError struct {
	Position *big.Rat
	Err      error
}

func (e *CallbackError) Error() string {
	return e.Err.Error()
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}
