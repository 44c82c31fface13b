package sequencer

import (
	"errors"
	"math/big"
	"testing"

	"github.com/robmorgan/cadence/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedAt returns a tickless sequencer already positioned at p.
func startedAt(t *testing.T, p *big.Rat) *Sequencer {
	t.Helper()
	s := newTickless()
	require.NoError(t, s.SetPosition(p))
	return s
}

func TestEveryTill(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var runs []*big.Rat
	c, err := s.Every(n(1), EveryOptions{Till: n(5)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)

	var afterAt *big.Rat
	c.After(new(big.Rat), func() { afterAt = s.Position() })

	s.Run()

	require.Equal(t, []string{"1", "2", "3"}, formatAll(runs))
	require.True(t, c.Stopped())
	require.True(t, timing.Equal(n(5), c.StoppedAt()))
	require.True(t, timing.Equal(n(5), afterAt))
}

func TestEveryDuration(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var runs []*big.Rat
	c, err := s.Every(r(1, 2), EveryOptions{Duration: r(3, 2)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	s.Run()

	require.Equal(t, []string{"1", "3/2", "2"}, formatAll(runs))
	require.True(t, timing.Equal(r(5, 2), c.StoppedAt()))
}

func TestEveryCondition(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	count := 0
	c, err := s.Every(n(1), EveryOptions{Condition: func() bool { return count < 2 }}, func(*Control) {
		count++
	})
	require.NoError(t, err)
	s.Run()

	require.Equal(t, 2, count)
	require.True(t, timing.Equal(n(4), c.StoppedAt()))
}

func TestEveryStopFromInside(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var runs []*big.Rat
	stops := 0
	c, err := s.Every(n(1), EveryOptions{}, func(c *Control) {
		runs = append(runs, c.Position())
		if len(runs) == 3 {
			c.Stop()
			c.Stop()
		}
	})
	require.NoError(t, err)
	c.OnStop(func() { stops++ })

	s.Run()

	require.Equal(t, []string{"1", "2", "3"}, formatAll(runs))
	require.Equal(t, 1, stops)
	require.Equal(t, Stopped, c.State())
	require.True(t, timing.Equal(n(3), c.StoppedAt()))
}

func TestEveryStopFromOutside(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var runs []*big.Rat
	c, err := s.Every(n(1), EveryOptions{}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	require.NoError(t, s.At(r(5, 2), c.Stop))

	s.Run()

	require.Equal(t, []string{"1", "2"}, formatAll(runs))
	require.True(t, timing.Equal(r(5, 2), c.StoppedAt()))
	require.True(t, s.Empty())
}

func TestEveryStopCascadesToNestedControls(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var child *Control
	parentRuns, childRuns := 0, 0
	parent, err := s.Every(n(1), EveryOptions{}, func(c *Control) {
		parentRuns++
		if child == nil {
			var err error
			child, err = c.Every(r(1, 4), EveryOptions{}, func(*Control) { childRuns++ })
			assert.NoError(t, err)
		}
	})
	require.NoError(t, err)
	require.NotNil(t, child)
	require.Same(t, parent, child.Parent())

	require.NoError(t, s.At(r(3, 2), parent.Stop))
	require.NoError(t, s.SetPosition(n(10)))

	require.Equal(t, 1, parentRuns)
	require.Equal(t, 2, childRuns)
	require.True(t, child.Stopped())
	require.True(t, timing.Equal(r(3, 2), child.StoppedAt()))
	require.True(t, s.Empty())

	_, err = parent.Every(n(1), EveryOptions{}, func(*Control) {})
	require.ErrorIs(t, err, ErrStopped)
}

func TestEveryPauseAndContinue(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var runs []*big.Rat
	c, err := s.Every(n(1), EveryOptions{Till: n(8)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	require.NoError(t, s.At(r(5, 2), c.Pause))
	require.NoError(t, s.At(n(4), func() {
		assert.True(t, c.Paused())
		c.Continue()
	}))

	s.Run()

	require.Equal(t, []string{"1", "2", "9/2", "11/2", "13/2"}, formatAll(runs))
	require.True(t, timing.Equal(r(17, 2), c.StoppedAt()))
}

func TestEveryIterationFailureKeepsRepeating(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	var errs []error
	s.OnError(func(err error) { errs = append(errs, err) })

	runs := 0
	_, err := s.Every(n(1), EveryOptions{Till: n(4)}, func(*Control) {
		runs++
		if runs == 1 {
			panic("first iteration")
		}
	})
	require.NoError(t, err)
	s.Run()

	require.Equal(t, 2, runs)
	require.Len(t, errs, 1)
}

func TestEveryRejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	s := startedAt(t, n(1))
	_, err := s.Every(new(big.Rat), EveryOptions{}, func(*Control) {})
	require.ErrorIs(t, err, ErrInvalidInterval)
	_, err = s.Every(r(-1, 2), EveryOptions{}, func(*Control) {})
	require.ErrorIs(t, err, ErrInvalidInterval)
	_, err = s.Every(n(1), EveryOptions{}, nil)
	require.ErrorIs(t, err, ErrNilCallback)
}

func TestEveryOnTickGrid(t *testing.T) {
	t.Parallel()

	s := newTickBased(t, 4, 4)
	require.NoError(t, s.SetPosition(n(1)))

	var runs []*big.Rat
	_, err := s.Every(r(1, 4), EveryOptions{Till: n(2)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	s.Run()

	require.Equal(t, []string{"1", "5/4", "3/2"}, formatAll(runs))
}

func TestEveryShorterThanATickRunsOncePerTick(t *testing.T) {
	t.Parallel()

	s := newTickBased(t, 4, 24)
	s.Tick()

	var runs []*big.Rat
	c, err := s.Every(r(1, 200), EveryOptions{Till: n(2)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.True(t, timing.Equal(r(97, 96), s.PendingPositions()[0]))

	s.Run()

	require.Len(t, runs, 95)
	assert.True(t, timing.Equal(n(1), runs[0]))
	assert.True(t, timing.Equal(r(190, 96), runs[94]))
	require.True(t, c.Stopped())
	require.True(t, timing.Equal(n(2), c.StoppedAt()))
}

func TestEveryIntervalIsRoundedToTheGrid(t *testing.T) {
	t.Parallel()

	s := newTickBased(t, 4, 4)
	require.NoError(t, s.SetPosition(n(1)))

	var runs []*big.Rat
	_, err := s.Every(r(3, 20), EveryOptions{Till: n(2)}, func(c *Control) {
		runs = append(runs, c.Position())
	})
	require.NoError(t, err)
	s.Run()

	// 3/20 is 2.4 ticks of 1/16
	require.Equal(t, []string{"1", "9/8", "5/4", "11/8", "3/2", "13/8", "7/4", "15/8"}, formatAll(runs))

	strict := newTickBased(t, 4, 24, WithStrictGrid(true))
	strict.Tick()
	_, err = strict.Every(r(1, 200), EveryOptions{Till: n(2)}, func(*Control) {})
	var gridErr *timing.OutOfGridError
	require.True(t, errors.As(err, &gridErr))
	require.True(t, strict.Empty())
}
