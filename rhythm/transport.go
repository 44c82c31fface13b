package rhythm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robmorgan/cadence/logger"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// ErrRunning is returned when a driver is started twice.
var ErrRunning = errors.New("transport is already running")

// Ticker is what a driver advances. *sequencer.Sequencer implements it.
type Ticker interface {
	Tick()
	Empty() bool
}

// Transport ticks a sequencer in real time at the metronome's tick interval. It must be
// the only caller of the sequencer while it runs.
type Transport struct {
	ticker    Ticker
	metronome *Metronome
	clock     clock.WithTicker
	log       *logrus.Entry

	stopWhenEmpty bool

	mu      sync.Mutex
	running bool
	ticks   int64
}

// TransportOption customises a Transport.
type TransportOption func(*Transport)

// WithClock replaces the real clock, typically with a fake one in tests.
func WithClock(cl clock.WithTicker) TransportOption {
	return func(t *Transport) { t.clock = cl }
}

// WithStopWhenEmpty makes Start return once nothing is pending.
func WithStopWhenEmpty(enabled bool) TransportOption {
	return func(t *Transport) { t.stopWhenEmpty = enabled }
}

// WithTransportLogger replaces the project logger.
func WithTransportLogger(entry *logrus.Entry) TransportOption {
	return func(t *Transport) { t.log = entry }
}

// NewTransport creates a transport for ticker paced by m.
func NewTransport(ticker Ticker, m *Metronome, opts ...TransportOption) *Transport {
	t := &Transport{
		ticker:    ticker,
		metronome: m,
		clock:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.GetProjectLogger()
	}
	return t
}

// Ticks returns how many ticks the transport has driven.
func (t *Transport) Ticks() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Running reports whether Start is in progress.
func (t *Transport) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Start blocks, ticking until ctx is done, or until the sequencer is empty when
// WithStopWhenEmpty is set. A tempo change on the metronome takes effect from the next
// tick.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return ErrRunning
	}
	t.running = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
	}()

	interval := t.metronome.TickInterval()
	ticker := t.clock.NewTicker(interval)
	defer func() { ticker.Stop() }()

	t.log.WithFields(logrus.Fields{
		"tempo":    t.metronome.Tempo(),
		"interval": interval,
	}).Info("transport started")

	for {
		if t.stopWhenEmpty && t.ticker.Empty() {
			t.log.WithField("ticks", t.Ticks()).Info("transport finished")
			return nil
		}

		select {
		case <-ctx.Done():
			t.log.WithField("ticks", t.Ticks()).Info("transport stopped")
			return ctx.Err()
		case <-ticker.C():
			t.ticker.Tick()
			t.mu.Lock()
			t.ticks++
			t.mu.Unlock()

			if next := t.metronome.TickInterval(); next != interval {
				ticker.Stop()
				interval = next
				ticker = t.clock.NewTicker(interval)
				t.log.WithField("interval", interval).Debug("tempo changed")
			}
		}
	}
}

// Duration returns the wall-clock time n ticks take at the current tempo.
func (t *Transport) Duration(n int64) time.Duration {
	return t.metronome.TickInterval() * time.Duration(n)
}
